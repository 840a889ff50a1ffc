package config

import (
	"flag"
	"os"
	"time"

	"github.com/lifeledger/lifeledger/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-u int      presigned upload (PUT) URL expiry, minutes
//	-w int      presigned download (GET) URL expiry, minutes
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
//   - Credentials are deliberately not flag-settable; they come from the
//     environment or the JSON file.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-g", "-e", "-u", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	uploadURLExpiry := fs.Int("u", int(config.UploadURLExpiry.Minutes()), "upload_url_expiry (in minutes)")
	downloadURLExpiry := fs.Int("w", int(config.DownloadURLExpiry.Minutes()), "download_url_expiry (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UploadURLExpiry = time.Duration(*uploadURLExpiry) * time.Minute
	config.DownloadURLExpiry = time.Duration(*downloadURLExpiry) * time.Minute
}
