package databricks

// Catalog queries take already-escaped string literals via %s.
const queryListCatalogs = `
	SELECT catalog_name, comment
	FROM system.information_schema.catalogs
	WHERE catalog_owner IS NOT NULL
	ORDER BY catalog_name`

const queryListSchemas = `
	SELECT schema_name, comment
	FROM system.information_schema.schemata
	WHERE catalog_name = %s
		AND schema_name NOT IN ('information_schema', 'system')
	ORDER BY schema_name`

const queryListTables = `
	SELECT table_name, table_type, comment
	FROM system.information_schema.tables
	WHERE table_catalog = %s
		AND table_schema = %s
	ORDER BY table_name`

const queryListColumns = `
	SELECT column_name, data_type, is_nullable, ordinal_position, comment
	FROM system.information_schema.columns
	WHERE table_catalog = %s
		AND table_schema = %s
		AND table_name = %s
	ORDER BY ordinal_position`

// Analysis queries take backtick-quoted identifiers via %s.
const queryCorrelation = `
	SELECT CORR(CAST(%[1]s AS DOUBLE), CAST(%[2]s AS DOUBLE)) AS correlation
	FROM %[3]s
	WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL`

const queryRowCount = `SELECT COUNT(*) AS total FROM %s`

const queryPairDistinct = `
	SELECT COUNT(DISTINCT %[1]s, %[2]s) AS unique_count
	FROM %[3]s`

// queryConditionalStats: %[1]s numeric, %[2]s categorical, %[3]s table.
const queryConditionalStats = `
	SELECT
		%[2]s AS category,
		COUNT(*) AS count,
		AVG(CAST(%[1]s AS DOUBLE)) AS mean_value,
		STDDEV(CAST(%[1]s AS DOUBLE)) AS stddev_value,
		MIN(CAST(%[1]s AS DOUBLE)) AS min_value,
		MAX(CAST(%[1]s AS DOUBLE)) AS max_value,
		PERCENTILE(CAST(%[1]s AS DOUBLE), 0.5) AS median_value
	FROM %[3]s
	WHERE %[2]s IS NOT NULL AND %[1]s IS NOT NULL
	GROUP BY %[2]s
	ORDER BY count DESC
	LIMIT 20`

const queryDayOfWeek = `
	SELECT
		CASE DAYOFWEEK(%[1]s)
			WHEN 1 THEN 'Sunday'
			WHEN 2 THEN 'Monday'
			WHEN 3 THEN 'Tuesday'
			WHEN 4 THEN 'Wednesday'
			WHEN 5 THEN 'Thursday'
			WHEN 6 THEN 'Friday'
			WHEN 7 THEN 'Saturday'
		END AS day_name,
		COUNT(*) AS count
	FROM %[2]s
	WHERE %[1]s IS NOT NULL
	GROUP BY DAYOFWEEK(%[1]s)
	ORDER BY DAYOFWEEK(%[1]s)`

const queryHourOfDay = `
	SELECT HOUR(%[1]s) AS hour, COUNT(*) AS count
	FROM %[2]s
	WHERE %[1]s IS NOT NULL
	GROUP BY HOUR(%[1]s)
	ORDER BY HOUR(%[1]s)`
