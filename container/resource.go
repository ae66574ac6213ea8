package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/probe/docker"
	"github.com/kbukum/scopekit/resilience"
)

type dockerAPI interface {
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (containertypes.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options containertypes.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (containertypes.InspectResponse, error)
	ContainerStop(ctx context.Context, containerID string, options containertypes.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options containertypes.RemoveOptions) error
	DaemonHost() string
	Close() error
}

var _ lifecycle.Startable = (*Resource)(nil)

// Resource is a Docker container implementing lifecycle.Startable.
type Resource struct {
	name string
	req  Request
	cfg  docker.Config
	log  *logger.Logger

	mu      sync.Mutex
	api     dockerAPI
	ownsAPI bool
	id      string
	host    string
	ports   nat.PortMap
}

// Option configures a Resource.
type Option func(*Resource)

// WithDocker sets the daemon connection. The default follows DOCKER_HOST.
func WithDocker(cfg docker.Config) Option {
	return func(r *Resource) { r.cfg = cfg }
}

func withAPI(api dockerAPI) Option {
	return func(r *Resource) { r.api = api }
}

// New creates a container resource. Nothing touches the daemon until Start.
func New(name string, req Request, opts ...Option) *Resource {
	req.applyDefaults()
	r := &Resource{
		name: name,
		req:  req,
		log:  logger.Get("container").WithFields(logger.Fields(logger.FieldResource, name)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Start implements lifecycle.Startable.
func (r *Resource) Start(ctx context.Context) error {
	if r.req.Image == "" {
		return errors.Configuration("container %s: image is required", r.name)
	}
	if err := r.create(ctx); err != nil {
		return err
	}
	if err := r.awaitReady(ctx); err != nil {
		if stopErr := r.Stop(context.Background()); stopErr != nil {
			err = stderrors.Join(err, stopErr)
		}
		return err
	}
	return nil
}

func (r *Resource) create(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id != "" {
		return errors.AlreadyStarted(r.name)
	}

	api, err := r.client()
	if err != nil {
		return err
	}
	if err := r.ensureImage(ctx, api); err != nil {
		return err
	}

	cfg, hostCfg, netCfg, platform := buildConfigs(r.name, r.req)
	resp, err := api.ContainerCreate(ctx, cfg, hostCfg, netCfg, platform, r.req.Name)
	if err != nil {
		return fmt.Errorf("container %s: create: %w", r.name, err)
	}
	if err := api.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		_ = api.ContainerRemove(context.Background(), resp.ID, containertypes.RemoveOptions{Force: true, RemoveVolumes: true})
		return fmt.Errorf("container %s: start: %w", r.name, err)
	}

	info, err := api.ContainerInspect(ctx, resp.ID)
	if err != nil {
		_ = api.ContainerRemove(context.Background(), resp.ID, containertypes.RemoveOptions{Force: true, RemoveVolumes: true})
		return fmt.Errorf("container %s: inspect: %w", r.name, err)
	}

	r.id = resp.ID
	r.host = daemonHostname(api.DaemonHost())
	r.ports = nil
	if info.NetworkSettings != nil {
		r.ports = info.NetworkSettings.Ports
	}
	r.log.Info("container started", logger.Fields(
		"id", shortID(resp.ID),
		"image", r.req.Image,
	))
	return nil
}

// ensureImage pulls the image if it is not present locally.
func (r *Resource) ensureImage(ctx context.Context, api dockerAPI) error {
	if _, err := api.ImageInspect(ctx, r.req.Image); err == nil {
		return nil
	}

	r.log.Info("pulling image", logger.Fields("image", r.req.Image))
	reader, err := api.ImagePull(ctx, r.req.Image, image.PullOptions{Platform: r.req.Platform})
	if err != nil {
		return fmt.Errorf("container %s: pull %s: %w", r.name, r.req.Image, err)
	}
	defer reader.Close() //nolint:errcheck // read-only stream
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("container %s: pull %s: %w", r.name, r.req.Image, err)
	}
	return nil
}

func (r *Resource) awaitReady(ctx context.Context) error {
	if r.req.Ready == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.req.ReadyTimeout)
	defer cancel()

	err := resilience.RetryFunc(ctx, r.req.ReadyRetry, func() error {
		return r.req.Ready(ctx, r)
	})
	if err != nil {
		return fmt.Errorf("container %s not ready after %s: %w", r.name, r.req.ReadyTimeout, err)
	}
	return nil
}

// Stop stops and removes the container. Stopping a resource that is not
// running is a no-op.
func (r *Resource) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id == "" {
		return nil
	}
	id, api := r.id, r.api
	r.id, r.ports = "", nil

	var errs []error
	err := api.ContainerStop(ctx, id, containertypes.StopOptions{Timeout: stopSeconds(r.req.StopTimeout)})
	if err != nil && !client.IsErrNotFound(err) {
		errs = append(errs, fmt.Errorf("stop: %w", err))
	}
	err = api.ContainerRemove(ctx, id, containertypes.RemoveOptions{Force: true, RemoveVolumes: true})
	if err != nil && !client.IsErrNotFound(err) {
		errs = append(errs, fmt.Errorf("remove: %w", err))
	}
	if r.ownsAPI {
		if err := api.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close client: %w", err))
		}
		r.api, r.ownsAPI = nil, false
	}

	if len(errs) > 0 {
		return fmt.Errorf("container %s: %w", r.name, stderrors.Join(errs...))
	}
	r.log.Info("container removed", logger.Fields("id", shortID(id)))
	return nil
}

// ID returns the container id, or "" when not running.
func (r *Resource) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Host returns the address published ports are reachable on.
func (r *Resource) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// MappedPort returns the host port a published tcp container port is bound to.
func (r *Resource) MappedPort(containerPort int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id == "" {
		return 0, fmt.Errorf("container %s is not running", r.name)
	}
	port := Port{Container: containerPort}.natPort()
	if p, ok := hostPort(r.ports[port]); ok {
		return p, nil
	}
	return 0, fmt.Errorf("container %s: port %s is not published", r.name, port)
}

// Endpoint returns "host:port" for a published tcp container port.
func (r *Resource) Endpoint(containerPort int) (string, error) {
	p, err := r.MappedPort(containerPort)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(r.Host(), strconv.Itoa(p)), nil
}

// PortReady reports ready once a TCP connection to the published
// containerPort succeeds.
func PortReady(containerPort int) ReadyFunc {
	return func(ctx context.Context, r *Resource) error {
		addr, err := r.Endpoint(containerPort)
		if err != nil {
			return err
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

func (r *Resource) client() (dockerAPI, error) {
	if r.api != nil {
		return r.api, nil
	}
	cli, err := docker.NewClient(r.cfg)
	if err != nil {
		return nil, err
	}
	r.api, r.ownsAPI = cli, true
	return cli, nil
}

// daemonHostname returns the host of a tcp daemon, or loopback for local
// sockets.
func daemonHostname(daemonHost string) string {
	u, err := url.Parse(daemonHost)
	if err != nil {
		return "127.0.0.1"
	}
	switch u.Scheme {
	case "tcp", "http", "https":
		if h := u.Hostname(); h != "" {
			return h
		}
	}
	return "127.0.0.1"
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
