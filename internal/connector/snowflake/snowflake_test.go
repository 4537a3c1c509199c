package snowflake

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/crimemap/crimemap/internal/connector"
)

func newTestConnector() *SnowflakeConnector {
	return &SnowflakeConnector{schemaName: "PUBLIC"}
}

func TestBuildSelect(t *testing.T) {
	c := newTestConnector()
	sql, args, err := c.BuildSelect(context.Background(), connector.SelectRequest{
		Table:      "incidents",
		Columns:    []string{c.FormatDate(`"date_time"`) + ` AS "date"`},
		Filter:     `"neighborhood_number" IN (?)`,
		FilterArgs: []interface{}{7},
		Order:      `"date_time" DESC`,
		Limit:      20,
	})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	want := `SELECT TO_CHAR("date_time", 'YYYY-MM-DD') AS "date" FROM "PUBLIC"."incidents" WHERE "neighborhood_number" IN (?) ORDER BY "date_time" DESC LIMIT ?`
	if sql != want {
		t.Errorf("SQL =\n  %s\nwant\n  %s", sql, want)
	}
	if !reflect.DeepEqual(args, []interface{}{7, 20}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildInsertGuardsUniqueColumn(t *testing.T) {
	c := newTestConnector()
	sql, args, err := c.BuildInsert(context.Background(), connector.InsertRequest{
		Table: "incidents",
		Columns: []connector.InsertColumn{
			{Name: "case_number", Value: "24000001"},
			{Name: "date_time", Value: "2024-01-05 13:30:00", Timestamp: true},
		},
		UniqueColumn: "case_number",
	})
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	want := `INSERT INTO "PUBLIC"."incidents" ("case_number", "date_time") SELECT ?, TO_TIMESTAMP_NTZ(?) WHERE NOT EXISTS (SELECT 1 FROM "PUBLIC"."incidents" WHERE "case_number" = ?)`
	if sql != want {
		t.Errorf("SQL =\n  %s\nwant\n  %s", sql, want)
	}
	if !reflect.DeepEqual(args, []interface{}{"24000001", "2024-01-05 13:30:00", "24000001"}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildInsertPlainAndErrors(t *testing.T) {
	c := newTestConnector()
	sql, _, err := c.BuildInsert(context.Background(), connector.InsertRequest{
		Table:   "codes",
		Columns: []connector.InsertColumn{{Name: "code", Value: 110}},
	})
	if err != nil || sql != `INSERT INTO "PUBLIC"."codes" ("code") VALUES (?)` {
		t.Errorf("SQL = %s, err = %v", sql, err)
	}

	_, _, err = c.BuildInsert(context.Background(), connector.InsertRequest{
		Table:        "codes",
		Columns:      []connector.InsertColumn{{Name: "code", Value: 110}},
		UniqueColumn: "case_number",
	})
	if err == nil {
		t.Error("expected error when unique column is missing")
	}
}

func TestBuildCreateTableIgnoresIndexes(t *testing.T) {
	c := newTestConnector()
	stmts, err := c.BuildCreateTable(connector.TableDef{
		Name:    "incidents",
		Columns: []connector.ColumnDef{{Name: "date_time", Type: connector.TypeTimestamp}},
		Indexes: []connector.IndexDef{{Name: "idx", Columns: []string{"date_time"}}},
	})
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	want := []string{`CREATE TABLE IF NOT EXISTS "PUBLIC"."incidents" ("date_time" TIMESTAMP_NTZ NOT NULL)`}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("stmts = %v", stmts)
	}
}

func writeTempPEM(t *testing.T, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), 0600); err != nil {
		t.Fatalf("write temp PEM: %v", err)
	}
	return path
}

func TestLoadPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	pkcs8, _ := x509.MarshalPKCS8PrivateKey(key)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"pkcs1", writeTempPEM(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)), ""},
		{"pkcs8", writeTempPEM(t, "PRIVATE KEY", pkcs8), ""},
		{"missing file", "/nonexistent/key.pem", "read private key file"},
		{"unsupported block", writeTempPEM(t, "EC PRIVATE KEY", []byte("fake")), "unsupported PEM block type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := loadPrivateKey(tt.path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadPrivateKey: %v", err)
			}
			if loaded.N.Cmp(key.N) != 0 {
				t.Error("loaded key modulus does not match original")
			}
		})
	}
}

func TestBuildJWTDSN(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	der, _ := x509.MarshalPKCS8PrivateKey(key)
	keyPath := writeTempPEM(t, "PRIVATE KEY", der)

	dsn, err := buildJWTDSN("loader@testaccount/crimemap/PUBLIC?warehouse=WH", keyPath)
	if err != nil {
		t.Fatalf("buildJWTDSN: %v", err)
	}
	if !strings.Contains(strings.ToLower(dsn), "authenticator=snowflake_jwt") {
		t.Errorf("DSN missing authenticator param: %s", dsn)
	}
	if !strings.Contains(dsn, "loader") {
		t.Errorf("DSN missing user: %s", dsn)
	}

	if _, err := buildJWTDSN("loader@testaccount/crimemap/PUBLIC", "/nonexistent/key.pem"); err == nil {
		t.Error("expected error for missing key file")
	}
}
