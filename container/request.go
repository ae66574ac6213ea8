package container

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kbukum/scopekit/resilience"
)

// Label keys set on every container.
const (
	LabelManagedBy = "managed-by"
	LabelResource  = "scopekit.resource"
	ManagedBy      = "scopekit"
)

// Defaults for Request.
const (
	DefaultStopTimeout  = 10 * time.Second
	DefaultReadyTimeout = 60 * time.Second
)

// Port is a container port published on a random host port.
type Port struct {
	Container int
	// Protocol defaults to "tcp".
	Protocol string
}

func (p Port) natPort() nat.Port {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return nat.Port(fmt.Sprintf("%d/%s", p.Container, proto))
}

// Request describes the container to run.
type Request struct {
	Image string
	// Name is the container name. Empty lets Docker choose one, which keeps
	// parallel runs from colliding.
	Name string
	Cmd  []string
	Env  map[string]string
	// Ports are published on random host ports; see Resource.Endpoint.
	Ports  []Port
	Labels map[string]string
	// Network attaches the container to a user-defined network.
	Network string
	// Platform is "os/arch", used for pulling and creating.
	Platform string
	// Ready reports whether the started container accepts work.
	Ready        ReadyFunc
	ReadyTimeout time.Duration
	ReadyRetry   resilience.RetryConfig
	// StopTimeout is the grace period Docker gives the container on Stop.
	StopTimeout time.Duration
}

// ReadyFunc checks a started container.
type ReadyFunc func(ctx context.Context, r *Resource) error

func (req *Request) applyDefaults() {
	if req.ReadyTimeout <= 0 {
		req.ReadyTimeout = DefaultReadyTimeout
	}
	if req.StopTimeout <= 0 {
		req.StopTimeout = DefaultStopTimeout
	}
	if req.ReadyRetry.MaxAttempts <= 0 {
		req.ReadyRetry.MaxAttempts = 1 << 20
	}
	if req.ReadyRetry.InitialBackoff <= 0 {
		req.ReadyRetry.InitialBackoff = 100 * time.Millisecond
	}
	if req.ReadyRetry.MaxBackoff <= 0 {
		req.ReadyRetry.MaxBackoff = 2 * time.Second
	}
	if req.ReadyRetry.RetryIf == nil {
		req.ReadyRetry.RetryIf = func(error) bool { return true }
	}
}

// buildConfigs converts req into the Docker create arguments.
func buildConfigs(name string, req Request) (*containertypes.Config, *containertypes.HostConfig, *network.NetworkingConfig, *ocispec.Platform) {
	labels := make(map[string]string, len(req.Labels)+2)
	for k, v := range req.Labels {
		labels[k] = v
	}
	labels[LabelManagedBy] = ManagedBy
	labels[LabelResource] = name

	env := make([]string, 0, len(req.Env))
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}

	cfg := &containertypes.Config{
		Image:  req.Image,
		Env:    env,
		Labels: labels,
	}
	if len(req.Cmd) > 0 {
		cfg.Cmd = req.Cmd
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range req.Ports {
		port := p.natPort()
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}}
	}
	if len(exposed) > 0 {
		cfg.ExposedPorts = exposed
	}

	hostCfg := &containertypes.HostConfig{PortBindings: bindings}

	var netCfg *network.NetworkingConfig
	if req.Network != "" && req.Network != "bridge" {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{req.Network: {}},
		}
	}

	return cfg, hostCfg, netCfg, parsePlatform(req.Platform)
}

// parsePlatform parses "os/arch" into an OCI platform spec.
func parsePlatform(platform string) *ocispec.Platform {
	parts := strings.SplitN(platform, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return &ocispec.Platform{OS: parts[0], Architecture: parts[1]}
}

func stopSeconds(d time.Duration) *int {
	s := int(d.Round(time.Second) / time.Second)
	if s < 1 {
		s = 1
	}
	return &s
}

func hostPort(bindings []nat.PortBinding) (int, bool) {
	for _, b := range bindings {
		if p, err := strconv.Atoi(b.HostPort); err == nil && p > 0 {
			return p, true
		}
	}
	return 0, false
}
