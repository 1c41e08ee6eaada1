package config

import (
	"time"

	csvimport "github.com/erp/posync/internal/infrastructure/import"
)

// defaults lists every key Load understands. Layout columns default to
// the stock export; zero is a valid column index.
func defaults() map[string]any {
	po := csvimport.DefaultPOLayout()
	li := csvimport.DefaultLineItemLayout()

	return map[string]any{
		"app.name": "posync",
		"app.env":  "development",
		"app.port": "8080",

		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "posync",
		"database.sslmode":            "disable",
		"database.path":               "posync.db",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,

		"redis.enabled":  false,
		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"log.level":  "info",
		"log.format": "console",
		"log.output": "stdout",

		"http.read_timeout":       30 * time.Second,
		"http.write_timeout":      60 * time.Second,
		"http.idle_timeout":       60 * time.Second,
		"http.max_header_bytes":   1 << 20,
		"http.cors_allow_origins": []string{},
		"http.cors_allow_methods": []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		"http.cors_allow_headers": []string{"Content-Type", "X-Request-ID", "X-User-Name"},
		"http.trusted_proxies":    []string{},

		"import.actor":          "ERP Import",
		"import.account_prefix": li.AccountPrefix,
		"import.lock_ttl":       15 * time.Minute,
		"import.max_file_size":  csvimport.DefaultMaxFileSize,
		"import.max_errors":     csvimport.DefaultMaxErrors,
		"import.timezone":       "UTC",

		"import.po.report_date_row": po.ReportDateRow,
		"import.po.report_date_col": po.ReportDateCol,
		"import.po.data_start_row":  po.DataStartRow,
		"import.po.sentinel":        po.Sentinel,
		"import.po.order_date_col":  po.OrderDateCol,
		"import.po.po_number_col":   po.PONumberCol,
		"import.po.vendor_col":      po.VendorCol,
		"import.po.ns_status_col":   po.NSStatusCol,
		"import.po.amount_col":      po.AmountCol,
		"import.po.location_col":    po.LocationCol,

		"import.line_items.data_start_row":    li.DataStartRow,
		"import.line_items.sentinel":          li.Sentinel,
		"import.line_items.candidate_columns": li.CandidateColumns,
		"import.line_items.account_col":       li.AccountCol,
		"import.line_items.memo_col":          li.MemoCol,
		"import.line_items.date_col":          li.DateCol,
		"import.line_items.quantity_col":      li.QuantityCol,

		"inbox.enabled":           false,
		"inbox.dir":               "./inbox",
		"inbox.poll_interval":     time.Minute,
		"inbox.po_pattern":        "*PurchaseOrder*.csv",
		"inbox.line_item_pattern": "*LineItem*.csv",

		"storage.enabled":           false,
		"storage.bucket":            "",
		"storage.region":            "us-east-1",
		"storage.endpoint":          "",
		"storage.access_key_id":     "",
		"storage.secret_access_key": "",
		"storage.prefix":            "exports",
		"storage.use_path_style":    false,

		"telemetry.metrics_enabled":    false,
		"telemetry.collector_endpoint": "localhost:4317",
		"telemetry.service_name":       "",
		"telemetry.insecure":           false,
		"telemetry.export_interval":    30 * time.Second,
	}
}
