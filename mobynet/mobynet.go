// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// ContainerInspector inspects containers by name or ID. The Docker
// [client.Client] satisfies this interface.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
}

// NetnsRef takes on the position of the container identified by nameOrID and
// returns the path reference to its network namespace, so that probes can be
// sent from inside this container's network namespace.
func NetnsRef(ctx context.Context, moby ContainerInspector, nameOrID string) (string, error) {
	details, err := moby.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", fmt.Errorf("cannot inspect container '%s': %w", nameOrID, err)
	}
	if details.ContainerJSONBase == nil || details.State == nil || details.State.Pid == 0 {
		return "", fmt.Errorf("container '%s' is not running", nameOrID)
	}
	return fmt.Sprintf("/proc/%d/ns/net", details.State.Pid), nil
}

// ContainerNetnsRef connects to the Docker engine at the specified host (or
// the environment's default when empty), returning the network namespace path
// reference of the specified container.
func ContainerNetnsRef(ctx context.Context, host string, nameOrID string) (string, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	moby, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return "", fmt.Errorf("cannot connect to Docker engine: %w", err)
	}
	defer moby.Close()
	return NetnsRef(ctx, moby, strings.TrimPrefix(nameOrID, "/"))
}
