package repository

import (
	"strings"
	"testing"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

func TestLikeOperatorByDialect(t *testing.T) {
	cases := map[string]string{
		"sqlite":     "LIKE",
		"postgres":   "ILIKE",
		"PostgreSQL": "ILIKE",
		"mysql":      "LIKE",
		"":           "LIKE",
	}
	for dialect, want := range cases {
		if got := likeOperatorByDialect(dialect); got != want {
			t.Fatalf("dialect %q: want %s got %s", dialect, want, got)
		}
	}
}

func TestBuildLikeConditionSkipsBlankColumns(t *testing.T) {
	condition, args := buildLikeCondition(nil, " mug ", "products.title", " ", "products.slug")
	if len(args) != 2 {
		t.Fatalf("arg count want 2 got %d", len(args))
	}
	if condition != "products.title LIKE ? OR products.slug LIKE ?" {
		t.Fatalf("unexpected condition: %s", condition)
	}
	if args[0] != "%mug%" {
		t.Fatalf("keyword should be trimmed and wrapped, got %v", args[0])
	}
}

func TestLockForUpdateIsNoopOnSQLite(t *testing.T) {
	db := setupRepositoryTestDB(t, "dialect_lock")
	if supportsRowLock(db) {
		t.Fatalf("sqlite should not support row locks")
	}
	if dbDialectName(nil) != "sqlite" {
		t.Fatalf("nil db should default to sqlite")
	}
	stmt := lockForUpdate(db).Session(&gorm.Session{DryRun: true}).Find(&[]models.Order{}).Statement
	if strings.Contains(strings.ToUpper(stmt.SQL.String()), "FOR UPDATE") {
		t.Fatalf("sqlite query should not contain FOR UPDATE: %s", stmt.SQL.String())
	}
}
