package buildinfo

// Set at link time, e.g.:
//
//	go build -ldflags "-X 'github.com/mayak/orderbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/mayak/orderbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)'" ./cmd/orderbot
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the source revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp; empty for local builds.
	Date = ""
)
