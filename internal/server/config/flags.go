package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/sparkdrive/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-l string     log level
//	-m string     metadata store: postgres | memory
//	-o string     object store: s3 | b2 | memory
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-q string     upload-event queue directory
//	-depth int    maximum cascade delete depth
//	-url string   public base URL used in share links
//
// os.Args is filtered through flagx.FilterArgs first so flags owned by other
// components (and "go test" flags) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-l", "-m", "-o", "-u", "-p", "-b", "-g", "-e", "-q", "-depth", "-url",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.MetadataStore, "m", config.MetadataStore, "metadata store (postgres|memory)")
	fs.StringVar(&config.ObjectStore, "o", config.ObjectStore, "object store (s3|b2|memory)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.QueueDir, "q", config.QueueDir, "upload event queue directory")
	fs.IntVar(&config.MaxDeleteDepth, "depth", config.MaxDeleteDepth, "maximum folder delete depth")
	fs.StringVar(&config.PublicBaseURL, "url", config.PublicBaseURL, "public base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
