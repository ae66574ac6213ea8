// Package version reports which scopekit release a test binary was built
// with. The version is read from the binary's module build info and can be
// overridden at link time:
//
//	go test -ldflags "-X github.com/kbukum/scopekit/version.Version=v1.2.0" ./...
package version
