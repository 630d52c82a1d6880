package appfs

import "embed"

// FS holds the SQL migrations, email templates and the common passwords list compiled into binaries.
//
//go:embed migrations/*.sql templates/email/* common-passwords.txt
var FS embed.FS
