// Package store reads set-style configuration lines kept in MariaDB.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaDBSource serves the lines of cfg_setconf, one device per unit of work:
//
//	cfg_setconf(device_name, line_no, line_text)
type MariaDBSource struct {
	db *sql.DB
}

func NewMariaDBSource(dsn string) (*MariaDBSource, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &MariaDBSource{db: db}, nil
}

func (s *MariaDBSource) Close() error {
	return s.db.Close()
}

// Devices lists every device with stored configuration, sorted by name.
func (s *MariaDBSource) Devices() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT device_name FROM cfg_setconf ORDER BY device_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		devices = append(devices, name)
	}
	return devices, rows.Err()
}

// Lines returns the configuration of one device in line order.
func (s *MariaDBSource) Lines(device string) ([]string, error) {
	rows, err := s.db.Query("SELECT line_text FROM cfg_setconf WHERE device_name = ? ORDER BY line_no ASC", device)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for %s: %w", device, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		if text.Valid {
			lines = append(lines, text.String)
		}
	}
	return lines, rows.Err()
}
