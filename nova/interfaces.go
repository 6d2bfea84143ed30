// Copyright 2023 The occi-os Authors
//
//    Licensed under the Apache License, Version 2.0 (the "License"); you may
//    not use this file except in compliance with the License. You may obtain
//    a copy of the License at
//
//         http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
//    WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
//    License for the specific language governing permissions and limitations
//    under the License.

package nova

import "context"

type VMState string
type TaskState string
type RebootType string
type ConsoleType string

const (
	VMStateActive    VMState = "active"
	VMStateBuilding  VMState = "building"
	VMStatePaused    VMState = "paused"
	VMStateSuspended VMState = "suspended"
	VMStateStopped   VMState = "stopped"
	VMStateRescued   VMState = "rescued"
	VMStateResized   VMState = "resized"
	VMStateError     VMState = "error"
	VMStateDeleted   VMState = "deleted"
)

const (
	// TaskImageSnapshot is set on an instance while the provider is
	// busy snapshotting it.
	TaskImageSnapshot TaskState = "image_snapshot"
)

const (
	SoftReboot RebootType = "SOFT"
	HardReboot RebootType = "HARD"
)

const (
	// NoVNC is the only console kind the glue layer ever requests.
	NoVNC ConsoleType = "novnc"
)

// Instance is the compute provider's view of a VM. The glue layer never
// stores these; a fresh one is fetched from the provider on every
// operation.
type Instance struct {
	// ID is the opaque identifier of the instance in the provider.
	ID string `json:"id"`
	// Name is the display name of the instance.
	Name string `json:"name"`
	// VMState is the primary lifecycle state of the instance.
	VMState VMState `json:"vm_state"`
	// TaskState is the transient task the provider is running against
	// the instance, if any.
	TaskState TaskState `json:"task_state,omitempty"`
	// FlavorID is the id of the flavor the instance was built with.
	FlavorID string `json:"flavor_id,omitempty"`
	// ImageID is the id of the boot image.
	ImageID string `json:"image_id,omitempty"`
	// AdminPass is only set on instances freshly returned by Create.
	AdminPass string `json:"-"`
	// Addresses holds the IP addresses the provider reports.
	Addresses []string `json:"addresses,omitempty"`
}

// Flavor is a named compute sizing profile.
type Flavor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	VCPUs int    `json:"vcpus"`
	RAM   int    `json:"ram"`
	Disk  int    `json:"disk"`
}

// Console is a handle to a remote console of an instance.
type Console struct {
	Type ConsoleType `json:"type"`
	URL  string      `json:"url"`
}

// VolumeAttachment describes one attachment of a volume to a server.
type VolumeAttachment struct {
	ServerID string `json:"server_id"`
	Device   string `json:"device"`
}

// Volume is the volume service's view of a block storage volume.
type Volume struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Attachments []VolumeAttachment `json:"attachments,omitempty"`
}

// CreateOpts holds the arguments of an instance creation call. Optional
// fields left at their zero value are not sent to the provider.
type CreateOpts struct {
	Name           string
	FlavorID       string
	ImageID        string
	KeyName        string
	KeyData        string
	SecurityGroups []string
	AdminPass      string
	MinCount       int
	MaxCount       int
}

// ComputeAPI is the surface of the compute service this package needs.
// Implementations must translate their own error kinds into the
// sentinel errors defined in this package, so callers can dispatch on
// them with errors.Is.
type ComputeAPI interface {
	// Create boots new instances. The provider returns one handle per
	// instance it reserved, which is why this returns a slice even
	// though the glue layer always requests a count of one.
	Create(ctx context.Context, opts CreateOpts) ([]Instance, error)
	// Get fetches one instance by id.
	Get(ctx context.Context, id string) (Instance, error)
	// List returns all non-deleted instances visible to the caller.
	List(ctx context.Context) ([]Instance, error)
	// Delete removes an instance immediately.
	Delete(ctx context.Context, id string) error
	// SoftDelete marks an instance for deferred reclamation.
	SoftDelete(ctx context.Context, id string) error

	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Suspend(ctx context.Context, id string) error
	Reboot(ctx context.Context, id string, rebootType RebootType) error

	Resize(ctx context.Context, id string, flavorID string) error
	ConfirmResize(ctx context.Context, id string) error
	Rebuild(ctx context.Context, id, imageID, adminPass string) error
	Snapshot(ctx context.Context, id, imageName string) error
	SetAdminPassword(ctx context.Context, id, password string) error
	GetConsole(ctx context.Context, id string, consoleType ConsoleType) (Console, error)

	// GetFlavorByName resolves a flavor name to its full record.
	GetFlavorByName(ctx context.Context, name string) (Flavor, error)
	// DefaultFlavor returns the provider defined default flavor.
	DefaultFlavor(ctx context.Context) (Flavor, error)

	AttachVolume(ctx context.Context, serverID, volumeID, device string) error
	// DetachVolume detaches a volume given only its id. The provider
	// resolves which instance it is attached to.
	DetachVolume(ctx context.Context, volumeID string) error
}

// VolumeAPI is the surface of the volume service this package needs.
type VolumeAPI interface {
	Get(ctx context.Context, id string) (Volume, error)
}
