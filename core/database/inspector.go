package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Column is one column of a table as reported by the database.
type Column struct {
	Field string
	Type  string
}

// Columns returns the columns of table, names and types lower-cased.
func Columns(db *gorm.DB, table string) ([]Column, error) {
	var columns []Column

	if db.Dialector.Name() == "sqlite" {
		var rows []struct {
			Name string
			Type string
		}
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", table)).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
		}
		for _, r := range rows {
			columns = append(columns, Column{Field: strings.ToLower(r.Name), Type: strings.ToLower(r.Type)})
		}
		return columns, nil
	}

	var rows []struct {
		Field string
		Type  string
	}
	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", table)).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	for _, r := range rows {
		columns = append(columns, Column{Field: strings.ToLower(r.Field), Type: strings.ToLower(r.Type)})
	}
	return columns, nil
}

// VerifyColumns checks that table has every column in want.
func VerifyColumns(db *gorm.DB, table string, want []string) error {
	columns, err := Columns(db, table)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c.Field] = true
	}
	var missing []string
	for _, w := range want {
		if !have[strings.ToLower(w)] {
			missing = append(missing, w)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("table %s is missing columns: %s", table, strings.Join(missing, ", "))
	}
	return nil
}
