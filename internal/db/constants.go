package db

// timeLayout is how timestamps are stored. It sorts lexically and is
// understood by SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05.000"
