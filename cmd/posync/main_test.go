package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erp/posync/internal/bootstrap"
	"github.com/erp/posync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOpener(t *testing.T) opener {
	t.Helper()
	t.Setenv("POSYNC_DATABASE_DRIVER", "sqlite")
	t.Setenv("POSYNC_DATABASE_PATH", filepath.Join(t.TempDir(), "posync.db"))
	return func(ctx context.Context) (*bootstrap.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return bootstrap.New(ctx, cfg, zap.NewNop(), bootstrap.Options{})
	}
}

func execute(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T, name string, rows ...string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Purchase Order Report\nACME Corp\n\nSeptember 2 2025\n\n\n\n")
	sb.WriteString("Date,Order Date,PO Number,Vendor,Status,Amount,Location\n")
	for _, r := range rows {
		sb.WriteString(r + "\n")
	}
	sb.WriteString("Total,,,,,,\n")
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

const (
	row10001 = `09/01/2025,09/01/2025,PO10001,121 CROOKHAM CO,Pending Receipt,"$1,234.56",Main Warehouse`
	row10002 = `09/01/2025,08/28/2025,PO10002,ACME SUPPLY,Pending Bill,$88.00,Annex`
)

func TestImportPurchaseOrders(t *testing.T) {
	open := testOpener(t)
	path := writeExport(t, "po.csv", row10001, row10002)

	out, err := execute(t, open, "import", "purchase-orders", path, "--actor", "jane")
	require.NoError(t, err)
	assert.Contains(t, out, "report date September 2 2025")
	assert.Contains(t, out, "created:   2")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "the user's file is left in place")

	out, err = execute(t, open, "history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"entity_type": "purchase_orders"`)
	assert.Contains(t, out, `"source": "cli"`)
	assert.Contains(t, out, `"imported_by": "jane"`)
}

func TestImport_JSONOutput(t *testing.T) {
	open := testOpener(t)
	path := writeExport(t, "po.csv", row10001)

	out, err := execute(t, open, "--json", "import", "purchase-orders", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"created_rows": 1`)
}

func TestImport_MissingFile(t *testing.T) {
	_, err := execute(t, testOpener(t), "import", "line-items", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestImport_RequiresFile(t *testing.T) {
	_, err := execute(t, testOpener(t), "import", "purchase-orders")
	assert.Error(t, err)
}

func TestUnhide(t *testing.T) {
	open := testOpener(t)

	_, err := execute(t, open, "import", "purchase-orders", writeExport(t, "first.csv", row10001, row10002))
	require.NoError(t, err)
	out, err := execute(t, open, "import", "purchase-orders", writeExport(t, "second.csv", row10002))
	require.NoError(t, err)
	assert.Contains(t, out, "hidden:    1")

	out, err = execute(t, open, "unhide", "PO10001", "--actor", "jane")
	require.NoError(t, err)
	assert.Contains(t, out, "PO10001 is visible")

	_, err = execute(t, open, "unhide", "PO99999")
	assert.Error(t, err)
}

func TestHistory_Empty(t *testing.T) {
	out, err := execute(t, testOpener(t), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No imports recorded")
}
