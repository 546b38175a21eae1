// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Settings come from the environment (optionally seeded from a .env file)
and can be overridden by flags:

	if err := cliparse.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Environment Variables

	PORT                         server port (default 5000)
	DATABASE_URL                 connection string (required)
	DATABASE_TYPE                sqlite, postgres or pgx (default sqlite)
	BASE_URL                     prefix for emailed links (default http://localhost:5000)
	MAIL_TRANSPORT               log or smtp (default log)
	MAIL_FROM, SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD
	REDIS_URL                    queue mail through a Redis outbox
	RATE_LIMIT_RPS, RATE_LIMIT_BURST
	OTEL_EXPORTER_OTLP_ENDPOINT  enable trace export
	SERVICE_NAME                 trace resource name (default interpoll)

# CLI Flags

	-p         Server port
	-d         Database URL
	-t         Database type
	-base-url  Public base URL
	-mail      Mail transport
	-redis     Redis URL

CLI flags take precedence over environment variables.
*/
package cliparse
