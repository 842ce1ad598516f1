package services

// SQL used by the load services. Identifiers are never interpolated into
// catalog queries; they are passed as parameters.

const (
	// queryTableColumns lists the columns of a table in declaration order.
	// The name resolves through search_path exactly as in the COPY statement;
	// an unknown table yields no rows.
	// Parameter $1: quoted table name, schema-qualified or not
	queryTableColumns = `
		SELECT a.attname::text
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		WHERE a.attrelid = to_regclass($1)
		  AND c.relkind IN ('r', 'p', 'f', 'v')
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	// copyStatementFormat is completed with the quoted table name and the
	// quoted column list. The payload is CSV in which NULL is an unquoted
	// empty field and every other value is quoted.
	copyStatementFormat = `COPY %s (%s) FROM STDIN WITH (FORMAT csv)`
)
