// Package container runs a Docker container as a startable resource.
//
//	pg := container.New("postgres", container.Request{
//	    Image: "postgres:16-alpine",
//	    Env:   map[string]string{"POSTGRES_PASSWORD": "secret"},
//	    Ports: []container.Port{{Container: 5432}},
//	    Ready: container.PortReady(5432),
//	})
//	declare.Shared(suiteType, "postgres", func() *container.Resource { return pg })
//
// Start pulls the image when it is missing, creates and starts the container
// with its ports published on random host ports, then waits for Ready. Stop
// stops and removes the container together with its anonymous volumes.
package container
