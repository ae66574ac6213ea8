// Package process runs a long-lived subprocess as a startable resource, for
// suites that need a local server binary rather than a container:
//
//	srv := process.New("api", process.Command{
//	    Binary: "./bin/api",
//	    Args:   []string{"--port", "18080"},
//	    Ready:  process.DialReady("127.0.0.1:18080"),
//	})
//	declare.Shared(suiteType, "api", func() *process.Resource { return srv })
//
// Stop sends SIGTERM to the whole process group and SIGKILL after the grace
// period.
package process
