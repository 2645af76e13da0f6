package store

import "strings"

// keyValueDatabase reads the database name from a semicolon-separated
// connection string such as "Host=db;Database=prices;Username=app".
// ok is false when dsn is not in that form.
func keyValueDatabase(dsn string) (string, bool) {
	if !strings.Contains(dsn, ";") {
		return "", false
	}
	for _, part := range strings.Split(dsn, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "database", "initial catalog", "dbname":
			return strings.TrimSpace(value), true
		}
	}
	return "", true
}
