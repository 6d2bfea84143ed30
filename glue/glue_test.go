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

	"github.com/pkg/errors"

	"github.com/brene/occi-os/config"
	"github.com/brene/occi-os/nova"
)

// fakeCompute is a hand rolled ComputeAPI double. It records every call
// and serves canned instances and flavors. Error fields, when set, are
// returned by the corresponding method.
type fakeCompute struct {
	instances map[string]nova.Instance
	flavors   []nova.Flavor

	calls      []string
	createOpts []nova.CreateOpts
	rebootType nova.RebootType
	snapshots  []string
	passwords  []string

	// resizeStalls keeps the instance out of the resized state, for
	// exercising the poll deadline.
	resizeStalls bool

	createErr   error
	pauseErr    error
	resumeErr   error
	suspendErr  error
	rebootErr   error
	resizeErr   error
	confirmErr  error
	rebuildErr  error
	snapshotErr error
	passwordErr error
	consoleErr  error
	attachErr   error
	detachErr   error
}

func newFakeCompute() *fakeCompute {
	return &fakeCompute{
		instances: map[string]nova.Instance{},
		flavors: []nova.Flavor{
			{ID: "1", Name: "m1.tiny", VCPUs: 1, RAM: 512, Disk: 1},
			{ID: "2", Name: "m1.small", VCPUs: 1, RAM: 2048, Disk: 20},
		},
	}
}

func (f *fakeCompute) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeCompute) callCount(call string) int {
	count := 0
	for _, c := range f.calls {
		if c == call {
			count++
		}
	}
	return count
}

func (f *fakeCompute) Create(_ context.Context, opts nova.CreateOpts) ([]nova.Instance, error) {
	f.record("create")
	f.createOpts = append(f.createOpts, opts)
	if f.createErr != nil {
		return nil, f.createErr
	}
	instance := nova.Instance{
		ID:        "new-instance",
		Name:      opts.Name,
		VMState:   nova.VMStateBuilding,
		FlavorID:  opts.FlavorID,
		ImageID:   opts.ImageID,
		AdminPass: opts.AdminPass,
	}
	return []nova.Instance{instance}, nil
}

func (f *fakeCompute) Get(_ context.Context, id string) (nova.Instance, error) {
	f.record("get")
	instance, ok := f.instances[id]
	if !ok {
		return nova.Instance{}, errors.Wrapf(nova.ErrNotFound, "fetching server %s", id)
	}
	return instance, nil
}

func (f *fakeCompute) List(_ context.Context) ([]nova.Instance, error) {
	f.record("list")
	ret := []nova.Instance{}
	for _, instance := range f.instances {
		ret = append(ret, instance)
	}
	return ret, nil
}

func (f *fakeCompute) Delete(_ context.Context, _ string) error {
	f.record("delete")
	return nil
}

func (f *fakeCompute) SoftDelete(_ context.Context, _ string) error {
	f.record("soft_delete")
	return nil
}

func (f *fakeCompute) Pause(_ context.Context, _ string) error {
	f.record("pause")
	return f.pauseErr
}

func (f *fakeCompute) Resume(_ context.Context, _ string) error {
	f.record("resume")
	return f.resumeErr
}

func (f *fakeCompute) Suspend(_ context.Context, _ string) error {
	f.record("suspend")
	return f.suspendErr
}

func (f *fakeCompute) Reboot(_ context.Context, _ string, rebootType nova.RebootType) error {
	f.record("reboot")
	f.rebootType = rebootType
	return f.rebootErr
}

func (f *fakeCompute) Resize(_ context.Context, id string, flavorID string) error {
	f.record("resize")
	if f.resizeErr != nil {
		return f.resizeErr
	}
	if f.resizeStalls {
		return nil
	}
	instance := f.instances[id]
	instance.VMState = nova.VMStateResized
	instance.FlavorID = flavorID
	f.instances[id] = instance
	return nil
}

func (f *fakeCompute) ConfirmResize(_ context.Context, _ string) error {
	f.record("confirm_resize")
	return f.confirmErr
}

func (f *fakeCompute) Rebuild(_ context.Context, _, _, _ string) error {
	f.record("rebuild")
	return f.rebuildErr
}

func (f *fakeCompute) Snapshot(_ context.Context, _, imageName string) error {
	f.record("snapshot")
	f.snapshots = append(f.snapshots, imageName)
	return f.snapshotErr
}

func (f *fakeCompute) SetAdminPassword(_ context.Context, _, password string) error {
	f.record("set_admin_password")
	f.passwords = append(f.passwords, password)
	return f.passwordErr
}

func (f *fakeCompute) GetConsole(_ context.Context, id string, consoleType nova.ConsoleType) (nova.Console, error) {
	f.record("get_console")
	if f.consoleErr != nil {
		return nova.Console{}, f.consoleErr
	}
	return nova.Console{
		Type: consoleType,
		URL:  "http://console.example.com/" + id,
	}, nil
}

func (f *fakeCompute) GetFlavorByName(_ context.Context, name string) (nova.Flavor, error) {
	f.record("get_flavor")
	for _, flavor := range f.flavors {
		if flavor.Name == name {
			return flavor, nil
		}
	}
	return nova.Flavor{}, errors.Wrapf(nova.ErrFlavorNotFound, "looking for flavor %s", name)
}

func (f *fakeCompute) DefaultFlavor(ctx context.Context) (nova.Flavor, error) {
	f.record("default_flavor")
	return f.GetFlavorByName(ctx, "m1.tiny")
}

func (f *fakeCompute) AttachVolume(_ context.Context, _, _, _ string) error {
	f.record("attach_volume")
	return f.attachErr
}

func (f *fakeCompute) DetachVolume(_ context.Context, _ string) error {
	f.record("detach_volume")
	return f.detachErr
}

// fakeVolume is a VolumeAPI double.
type fakeVolume struct {
	volumes map[string]nova.Volume
}

func (f *fakeVolume) Get(_ context.Context, id string) (nova.Volume, error) {
	volume, ok := f.volumes[id]
	if !ok {
		return nova.Volume{}, errors.Wrapf(nova.ErrNotFound, "fetching volume %s", id)
	}
	return volume, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Default: config.Default{
			VNCEnabled:    true,
			DefaultFlavor: "m1.tiny",
		},
		Nova: config.Nova{
			AuthURL:     "https://keystone.example.com:5000/v3",
			Username:    "occi",
			Password:    "secret",
			ProjectName: "demo",
			DomainName:  "default",
		},
	}
}

func newTestGlue(compute *fakeCompute, volume *fakeVolume, cfg *config.Config) *VMGlue {
	if cfg == nil {
		cfg = testConfig()
	}
	if volume == nil {
		volume = &fakeVolume{volumes: map[string]nova.Volume{}}
	}
	return NewVMGlue(compute, volume, cfg)
}
