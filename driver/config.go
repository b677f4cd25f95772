// Package driver implements opening a single connection, preparing and
// executing statements, the fetch-mode enumeration, and dialect-specific
// error classification. No string interpolation of user data is ever
// permitted; every exported Execute/Query path takes positional
// parameters.
package driver

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// TLSConfig carries the CA/cert/key paths and verification toggle from
// connection descriptors.
type TLSConfig struct {
	CAPath     string
	CertPath   string
	KeyPath    string
	Verify     bool
	SSLMode    string // PostgreSQL only: disable, require, verify-ca, verify-full
	TLSEnabled bool
}

// ConnConfig is the structured connection descriptor.
type ConnConfig struct {
	Driver   dialect.Kind
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Charset  string
	Socket   string
	TLS      TLSConfig
}

// DefaultPort fills in 3306/5432 when Port is zero
func (c ConnConfig) DefaultPort() int {
	if c.Port != 0 {
		return c.Port
	}
	switch c.Driver {
	case dialect.MySQL:
		return 3306
	case dialect.Postgres:
		return 5432
	default:
		return 0
	}
}

// DefaultCharset returns "utf8mb4" for MySQL and "UTF8" for PostgreSQL when
// Charset is unset
func (c ConnConfig) DefaultCharset() string {
	if c.Charset != "" {
		return c.Charset
	}
	switch c.Driver {
	case dialect.MySQL:
		return "utf8mb4"
	case dialect.Postgres:
		return "UTF8"
	default:
		return ""
	}
}

// DSN renders the driver-specific connection string, grounded on the
// teacher's mysqlBuildDSN/postgresBuildDSN (database/mysql/database.go,
// database/postgres/database.go).
func (c ConnConfig) DSN() (string, error) {
	switch c.Driver {
	case dialect.MySQL:
		return c.mysqlDSN()
	case dialect.Postgres:
		return c.postgresDSN(), nil
	default:
		return "", fmt.Errorf("driver: unsupported dialect %v", c.Driver)
	}
}

func (c ConnConfig) mysqlDSN() (string, error) {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.Collation = ""
	if c.Socket == "" {
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.DefaultPort())
	} else {
		cfg.Net = "unix"
		cfg.Addr = c.Socket
	}
	if c.TLS.TLSEnabled {
		if c.TLS.CAPath != "" {
			if err := registerMySQLTLSConfig("simplemdb-"+c.Database, c.TLS); err != nil {
				return "", err
			}
			cfg.TLSConfig = "simplemdb-" + c.Database
		} else if c.TLS.Verify {
			cfg.TLSConfig = "true"
		} else {
			cfg.TLSConfig = "skip-verify"
		}
	}
	return cfg.FormatDSN(), nil
}

// registerMySQLTLSConfig loads a CA bundle (and optional client cert/key)
// into a named TLS config the go-sql-driver/mysql package looks up by
// name, adapted from sqldef's registerTLSConfig in
// database/mysql/database.go.
func registerMySQLTLSConfig(name string, t TLSConfig) error {
	pool := x509.NewCertPool()
	pem, err := os.ReadFile(t.CAPath)
	if err != nil {
		return fmt.Errorf("driver: read CA file: %w", err)
	}
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		return fmt.Errorf("driver: failed to append CA PEM")
	}

	tlsConfig := &tls.Config{RootCAs: pool, InsecureSkipVerify: !t.Verify}

	if t.CertPath != "" && t.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(t.CertPath, t.KeyPath)
		if err != nil {
			return fmt.Errorf("driver: load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return mysqldriver.RegisterTLSConfig(name, tlsConfig)
}

func (c ConnConfig) postgresDSN() string {
	var options []string
	host := fmt.Sprintf("%s:%d", c.Host, c.DefaultPort())
	if c.Socket != "" {
		options = append(options, "host="+c.Socket)
		host = ""
	}

	sslMode := c.TLS.SSLMode
	if sslMode == "" {
		if c.TLS.TLSEnabled {
			sslMode = "require"
		} else {
			sslMode = "disable"
		}
	}
	options = append(options, "sslmode="+sslMode)

	if c.TLS.CAPath != "" {
		options = append(options, "sslrootcert="+c.TLS.CAPath)
	}
	if c.TLS.CertPath != "" {
		options = append(options, "sslcert="+c.TLS.CertPath)
	}
	if c.TLS.KeyPath != "" {
		options = append(options, "sslkey="+c.TLS.KeyPath)
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s",
		url.QueryEscape(c.Username), url.QueryEscape(c.Password), host, c.Database,
		strings.Join(options, "&"))
}

// DriverName returns the database/sql driver name to pass to sql.Open.
func (c ConnConfig) DriverName() string {
	switch c.Driver {
	case dialect.MySQL:
		return "mysql"
	case dialect.Postgres:
		return "postgres"
	default:
		return ""
	}
}
