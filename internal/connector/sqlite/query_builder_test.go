package sqlite

import (
	"context"
	"reflect"
	"testing"

	"github.com/crimemap/crimemap/internal/connector"
)

func newTestConnector() *SQLiteConnector {
	return &SQLiteConnector{schemaName: "main"}
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		req      connector.SelectRequest
		wantSQL  string
		wantArgs []interface{}
		wantErr  bool
	}{
		{
			name:    "empty table returns error",
			req:     connector.SelectRequest{},
			wantErr: true,
		},
		{
			name:     "select all",
			req:      connector.SelectRequest{Table: "codes"},
			wantSQL:  `SELECT * FROM "codes"`,
			wantArgs: []interface{}{},
		},
		{
			name: "filter order and limit",
			req: connector.SelectRequest{
				Table:      "incidents",
				Columns:    []string{`"case_number"`, `date("date_time") AS "date"`},
				Filter:     `"code" IN (?, ?)`,
				FilterArgs: []interface{}{110, 210},
				Order:      `"date_time" DESC`,
				Limit:      1000,
			},
			wantSQL:  `SELECT "case_number", date("date_time") AS "date" FROM "incidents" WHERE "code" IN (?, ?) ORDER BY "date_time" DESC LIMIT ?`,
			wantArgs: []interface{}{110, 210, 1000},
		},
	}

	c := newTestConnector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := c.BuildSelect(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if sql != tt.wantSQL {
				t.Errorf("SQL =\n  %s\nwant\n  %s", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildInsert(t *testing.T) {
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
	want := `INSERT INTO "incidents" ("case_number", "date_time") VALUES (?, datetime(?))`
	if sql != want {
		t.Errorf("SQL = %s, want %s", sql, want)
	}
	if !reflect.DeepEqual(args, []interface{}{"24000001", "2024-01-05 13:30:00"}) {
		t.Errorf("args = %v", args)
	}

	if _, _, err := c.BuildInsert(context.Background(), connector.InsertRequest{Table: "incidents"}); err == nil {
		t.Error("expected error for insert without columns")
	}
}

func TestBuildDelete(t *testing.T) {
	c := newTestConnector()
	sql, args, err := c.BuildDelete(context.Background(), connector.DeleteRequest{
		Table:      "incidents",
		Filter:     `"case_number" = ?`,
		FilterArgs: []interface{}{"24000001"},
	})
	if err != nil {
		t.Fatalf("BuildDelete: %v", err)
	}
	if sql != `DELETE FROM "incidents" WHERE "case_number" = ?` {
		t.Errorf("SQL = %s", sql)
	}
	if len(args) != 1 || args[0] != "24000001" {
		t.Errorf("args = %v", args)
	}

	if _, _, err := c.BuildDelete(context.Background(), connector.DeleteRequest{Table: "incidents"}); err == nil {
		t.Error("expected error for unfiltered delete")
	}
}

func TestBuildCreateTable(t *testing.T) {
	c := newTestConnector()
	stmts, err := c.BuildCreateTable(connector.TableDef{
		Name: "incidents",
		Columns: []connector.ColumnDef{
			{Name: "case_number", Type: connector.TypeKey, PrimaryKey: true},
			{Name: "date_time", Type: connector.TypeTimestamp},
			{Name: "code", Type: connector.TypeInteger},
		},
		Indexes: []connector.IndexDef{{Name: "idx_incidents_date_time", Columns: []string{"date_time"}}},
	})
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	want := []string{
		`CREATE TABLE IF NOT EXISTS "incidents" ("case_number" TEXT NOT NULL PRIMARY KEY, "date_time" TEXT NOT NULL, "code" INTEGER NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS "idx_incidents_date_time" ON "incidents" ("date_time")`,
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("stmts =\n  %v\nwant\n  %v", stmts, want)
	}
}

func TestDateExpressions(t *testing.T) {
	c := newTestConnector()
	if got := c.FormatDate(`"date_time"`); got != `date("date_time")` {
		t.Errorf("FormatDate = %s", got)
	}
	if got := c.FormatTime(`"date_time"`); got != `time("date_time")` {
		t.Errorf("FormatTime = %s", got)
	}
	if got := c.CastTimestamp("?"); got != "datetime(?)" {
		t.Errorf("CastTimestamp = %s", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := New()
	if err := conn.Connect(connector.ConnectionConfig{Driver: "sqlite", DSN: ":memory:"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Disconnect()

	ctx := context.Background()
	stmts, _ := conn.BuildCreateTable(connector.TableDef{
		Name:    "codes",
		Columns: []connector.ColumnDef{{Name: "code", Type: connector.TypeInteger, PrimaryKey: true}},
	})
	for _, s := range stmts {
		if _, err := conn.DB().ExecContext(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, err := conn.DB().ExecContext(ctx, `INSERT INTO "codes" ("code") VALUES (?)`, 110); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := conn.DB().ExecContext(ctx, `INSERT INTO "codes" ("code") VALUES (?)`, 110)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if !conn.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
	if conn.IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) = true")
	}

	names, err := conn.GetTableNames(ctx)
	if err != nil {
		t.Fatalf("GetTableNames: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"codes"}) {
		t.Errorf("GetTableNames = %v", names)
	}
}
