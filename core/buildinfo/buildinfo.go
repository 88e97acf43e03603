// Package buildinfo carries release metadata stamped by the linker:
//
//	go build -ldflags "\
//	  -X github.com/wbcoef/wbcoef/core/buildinfo.Version=v0.4.0 \
//	  -X github.com/wbcoef/wbcoef/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/wbcoef/wbcoef/core/buildinfo.Date=$(date -u +%FT%TZ)" ./cmd/wbcoefbot
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// String renders the build stamp for startup logs and /help footers.
func String() string {
	if Date == "" {
		return Version + "@" + Commit
	}
	return Version + "@" + Commit + " (" + Date + ")"
}
