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

package glue

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/pkg/errors"

	"github.com/brene/occi-os/auth"
	"github.com/brene/occi-os/config"
	glueErrors "github.com/brene/occi-os/errors"
	"github.com/brene/occi-os/nova"
	"github.com/brene/occi-os/params"
	"github.com/brene/occi-os/util"
)

// VMGlue translates OCCI level requests into compute provider calls.
// It holds no state of its own; the provider is the source of truth for
// every instance on every call.
type VMGlue struct {
	compute nova.ComputeAPI
	volume  nova.VolumeAPI
	cfg     *config.Config

	clock clock.Clock
}

// NewVMGlue returns a VMGlue on top of the given provider clients.
func NewVMGlue(compute nova.ComputeAPI, volume nova.VolumeAPI, cfg *config.Config) *VMGlue {
	return &VMGlue{
		compute: compute,
		volume:  volume,
		cfg:     cfg,
		clock:   clock.WallClock,
	}
}

// Create boots a new instance for the given resource description and
// returns the provider's record of it.
func (v *VMGlue) Create(ctx context.Context, resource params.ResourceDescription) (nova.Instance, error) {
	identity := auth.IdentityFromContext(ctx)
	ctx = util.WithSlogContext(ctx,
		slog.String("project_id", identity.ProjectID),
		slog.String("user_id", identity.UserID))

	name := resource.Hostname()

	var resourceTpl *params.Mixin
	var osTpl *params.Mixin
	var keyName, keyData string
	var sgNames []string

	// Scan mixins in order. For kinds that expect a single mixin, the
	// last occurrence wins. Security group mixins accumulate.
	for i := range resource.Mixins {
		mixin := resource.Mixins[i]
		switch mixin.Kind {
		case params.ResourceTemplate:
			resourceTpl = &resource.Mixins[i]
		case params.OsTemplate:
			osTpl = &resource.Mixins[i]
		case params.KeyPairExtension:
			keyName = resource.Attributes[params.PublicKeyNameAttr]
			keyData = resource.Attributes[params.PublicKeyDataAttr]
		case params.SecurityGroupExtension:
			// If the group does not exist, the create call will fail.
			sgNames = append(sgNames, mixin.Term)
		}
	}

	if osTpl == nil {
		return nova.Instance{}, glueErrors.NewValidationError("please provide a valid OS template")
	}

	var flavor nova.Flavor
	var err error
	if resourceTpl != nil {
		flavor, err = v.compute.GetFlavorByName(ctx, resourceTpl.Term)
		if err != nil {
			return nova.Instance{}, glueErrors.NewValidationError("fetching flavor: %q", err)
		}
	} else {
		flavor, err = v.compute.DefaultFlavor(ctx)
		if err != nil {
			return nova.Instance{}, glueErrors.NewValidationError("fetching default flavor: %q", err)
		}
		slog.WarnContext(ctx, "no resource template was found in the request, using the default", "flavor", flavor.Name)
	}

	password, err := util.GeneratePassword(v.cfg.Default.GetPasswordLength())
	if err != nil {
		return nova.Instance{}, errors.Wrap(err, "generating admin password")
	}

	instances, err := v.compute.Create(ctx, nova.CreateOpts{
		Name:           name,
		FlavorID:       flavor.ID,
		ImageID:        osTpl.ImageID,
		KeyName:        keyName,
		KeyData:        keyData,
		SecurityGroups: sgNames,
		AdminPass:      password,
		MinCount:       1,
		MaxCount:       1,
	})
	if err != nil {
		return nova.Instance{}, glueErrors.NewValidationError("creating instance: %q", err)
	}
	if len(instances) == 0 {
		return nova.Instance{}, glueErrors.NewHTTPError(http.StatusInternalServerError, "provider returned no instances")
	}

	// The provider hands back one record per reserved instance. We
	// always request exactly one; return the first.
	return instances[0], nil
}

// Rebuild reinstalls an instance from the given image. A fresh admin
// password is generated for the rebuilt instance.
func (v *VMGlue) Rebuild(ctx context.Context, uid, imageID string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	password, err := util.GeneratePassword(v.cfg.Default.GetPasswordLength())
	if err != nil {
		return errors.Wrap(err, "generating admin password")
	}

	if err := v.compute.Rebuild(ctx, instance.ID, imageID, password); err != nil {
		switch {
		case errors.Is(err, nova.ErrInvalidState):
			return glueErrors.NewValidationError("VM is in an invalid state")
		case errors.Is(err, nova.ErrImageNotFound):
			return glueErrors.NewValidationError("cannot find image for rebuild")
		}
		return errors.Wrap(err, "rebuilding instance")
	}
	return nil
}

var errResizeNotFinished = fmt.Errorf("resize not finished")

// Resize moves an instance to a new flavor, waits for the provider to
// report the resize as finished and confirms it. Waiting is bounded by
// the configured resize timeout.
func (v *VMGlue) Resize(ctx context.Context, uid, flavorName string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	flavor, err := v.compute.GetFlavorByName(ctx, flavorName)
	if err != nil {
		if errors.Is(err, nova.ErrFlavorNotFound) {
			return glueErrors.NewValidationError("unable to locate requested flavor")
		}
		return errors.Wrap(err, "fetching flavor")
	}

	if err := v.compute.Resize(ctx, instance.ID, flavor.ID); err != nil {
		if errors.Is(err, nova.ErrInvalidState) {
			return glueErrors.NewValidationError("VM is in an invalid state: %q", err)
		}
		return errors.Wrap(err, "resizing instance")
	}

	if err := v.waitForResize(ctx, instance.ID); err != nil {
		return err
	}

	if err := v.compute.ConfirmResize(ctx, instance.ID); err != nil {
		if errors.Is(err, nova.ErrInvalidState) {
			return glueErrors.NewValidationError("VM is in an invalid state: %q", err)
		}
		return errors.Wrap(err, "confirming resize")
	}
	return nil
}

// waitForResize polls the instance once per second until the provider
// reports it as resized or the deadline passes.
func (v *VMGlue) waitForResize(ctx context.Context, uid string) error {
	timeout := v.cfg.Default.GetResizeTimeout()
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			instance, err := v.compute.Get(ctx, uid)
			if err != nil {
				return errors.Wrap(err, "fetching instance")
			}
			if instance.VMState != nova.VMStateResized {
				return errResizeNotFinished
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errResizeNotFinished)
		},
		Attempts: int(timeout / time.Second),
		Delay:    time.Second,
		Clock:    v.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if retry.IsAttemptsExceeded(err) || retry.IsDurationExceeded(err) {
			return glueErrors.NewTimeoutError("timed out waiting for instance %s to finish resizing", uid)
		}
		if retry.IsRetryStopped(err) {
			return errors.Wrap(ctx.Err(), "waiting for resize")
		}
		return errors.Wrap(err, "waiting for resize")
	}
	return nil
}

// Delete removes an instance. When a positive reclaim interval is
// configured, deletion is deferred via the provider's soft delete.
func (v *VMGlue) Delete(ctx context.Context, uid string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if v.cfg.Default.ReclaimInstanceInterval > 0 {
		if err := v.compute.SoftDelete(ctx, instance.ID); err != nil {
			return errors.Wrap(err, "soft deleting instance")
		}
		return nil
	}
	if err := v.compute.Delete(ctx, instance.ID); err != nil {
		return errors.Wrap(err, "deleting instance")
	}
	return nil
}

// Suspend freezes an instance. Use Start to thaw it. The OCCI suspend
// action maps to the provider's pause primitive.
func (v *VMGlue) Suspend(ctx context.Context, uid string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.Pause(ctx, instance.ID); err != nil {
		return glueErrors.NewHTTPError(http.StatusInternalServerError, "error while suspending VM: %q", err)
	}
	return nil
}

// Start brings a stopped or suspended instance back up. The provider's
// resume primitive is used; its own start/stop pairing proved
// unreliable.
func (v *VMGlue) Start(ctx context.Context, uid string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.Resume(ctx, instance.ID); err != nil {
		return glueErrors.NewHTTPError(http.StatusInternalServerError, "error while starting VM: %q", err)
	}
	return nil
}

// Stop halts an instance. The OCCI stop action maps to the provider's
// suspend primitive, for the same reason Start uses resume.
func (v *VMGlue) Stop(ctx context.Context, uid string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.Suspend(ctx, instance.ID); err != nil {
		return glueErrors.NewHTTPError(http.StatusInternalServerError, "error while stopping VM: %q", err)
	}
	return nil
}

// Snapshot creates a new image from a running instance.
func (v *VMGlue) Snapshot(ctx context.Context, uid, imageName string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.Snapshot(ctx, instance.ID, imageName); err != nil {
		if errors.Is(err, nova.ErrInvalidState) {
			return glueErrors.NewValidationError("VM is not in a valid state")
		}
		return errors.Wrap(err, "snapshotting instance")
	}
	return nil
}

// Restart reboots an instance. The OCCI graceful and warm methods issue
// a soft reboot; cold issues a hard one.
func (v *VMGlue) Restart(ctx context.Context, uid string, method params.RestartMethod) error {
	var rebootType nova.RebootType
	switch method {
	case params.RestartGraceful, params.RestartWarm:
		rebootType = nova.SoftReboot
	case params.RestartCold:
		rebootType = nova.HardReboot
	default:
		return glueErrors.NewValidationError("unknown restart method: %s", method)
	}

	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.Reboot(ctx, instance.ID, rebootType); err != nil {
		if errors.Is(err, nova.ErrInvalidState) {
			return glueErrors.NewHTTPError(http.StatusNotAcceptable, "VM is in an invalid state")
		}
		return errors.Wrap(err, "rebooting instance")
	}
	return nil
}

// AttachVolume attaches a storage volume to an instance at the given
// mount point.
func (v *VMGlue) AttachVolume(ctx context.Context, instanceID, volumeID, mountPoint string) error {
	instance, err := v.Get(ctx, instanceID)
	if err != nil {
		return err
	}

	volume, err := v.volume.Get(ctx, volumeID)
	if err != nil {
		if errors.Is(err, nova.ErrNotFound) {
			return glueErrors.NewHTTPError(http.StatusNotFound, "volume not found")
		}
		return errors.Wrap(err, "fetching volume")
	}

	if err := v.compute.AttachVolume(ctx, instance.ID, volume.ID, mountPoint); err != nil {
		switch {
		case errors.Is(err, nova.ErrInvalidDevicePath):
			return glueErrors.NewValidationError("invalid device path")
		case errors.Is(err, nova.ErrNotFound):
			return glueErrors.NewHTTPError(http.StatusNotFound, "volume not found")
		}
		return errors.Wrap(err, "attaching volume")
	}
	return nil
}

// DetachVolume detaches a storage volume. The provider resolves which
// instance it is attached to; no instance fetch happens here.
func (v *VMGlue) DetachVolume(ctx context.Context, volumeID string) error {
	if err := v.compute.DetachVolume(ctx, volumeID); err != nil {
		switch {
		case errors.Is(err, nova.ErrInvalidVolume):
			return glueErrors.NewValidationError("invalid volume")
		case errors.Is(err, nova.ErrVolumeUnattached):
			return glueErrors.NewValidationError("volume is not attached")
		}
		return errors.Wrap(err, "detaching volume")
	}
	return nil
}

// SetPassword sets a new admin password on an instance. A provider that
// cannot set the password is not an error the caller needs to see; the
// failure is logged and swallowed.
func (v *VMGlue) SetPassword(ctx context.Context, uid, password string) error {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := v.compute.SetAdminPassword(ctx, instance.ID, password); err != nil {
		slog.WarnContext(ctx, "unable to set password, driver might not support it", "instance_id", instance.ID, "error", err)
	}
	return nil
}

// GetConsole returns a handle to the remote console of an instance, or
// nil when console support is disabled or the provider cannot produce
// one right now.
func (v *VMGlue) GetConsole(ctx context.Context, uid string) (*nova.Console, error) {
	if !v.cfg.Default.VNCEnabled {
		return nil, nil
	}

	instance, err := v.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	console, err := v.compute.GetConsole(ctx, instance.ID, nova.NoVNC)
	if err != nil {
		if errors.Is(err, nova.ErrNotFound) {
			slog.WarnContext(ctx, "console info is not available at the moment", "instance_id", instance.ID)
			return nil, nil
		}
		return nil, errors.Wrap(err, "fetching console")
	}
	return &console, nil
}

// Get fetches an instance from the provider. Every other operation
// routes through here, so a missing instance always surfaces as the
// same NotFoundError.
func (v *VMGlue) Get(ctx context.Context, uid string) (nova.Instance, error) {
	instance, err := v.compute.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, nova.ErrNotFound) {
			return nova.Instance{}, glueErrors.NewNotFoundError("VM not found")
		}
		return nova.Instance{}, errors.Wrap(err, "fetching instance")
	}
	return instance, nil
}

// List returns all non-deleted instances visible to the caller.
func (v *VMGlue) List(ctx context.Context) ([]nova.Instance, error) {
	instances, err := v.compute.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing instances")
	}
	return instances, nil
}

// State fetches an instance and derives its OCCI state and the actions
// currently applicable to it.
func (v *VMGlue) State(ctx context.Context, uid string) (params.ComputeState, []params.Action, error) {
	instance, err := v.Get(ctx, uid)
	if err != nil {
		return "", nil, err
	}

	state, actions := DeriveState(instance.VMState, instance.TaskState)
	return state, actions, nil
}
