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

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/extendedstatus"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/pauseunpause"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/remoteconsoles"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/suspendresume"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/volumeattach"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/pkg/errors"

	"github.com/brene/occi-os/config"
)

var _ ComputeAPI = &computeClient{}

// NewClients authenticates against the configured OpenStack deployment
// and returns clients for the compute and volume services.
func NewClients(cfg *config.Config) (ComputeAPI, VolumeAPI, error) {
	provider, err := newProviderClient(cfg.Nova)
	if err != nil {
		return nil, nil, errors.Wrap(err, "authenticating")
	}

	endpointOpts := gophercloud.EndpointOpts{
		Region: cfg.Nova.Region,
	}

	compute, err := openstack.NewComputeV2(provider, endpointOpts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching compute endpoint")
	}

	blockStorage, err := openstack.NewBlockStorageV3(provider, endpointOpts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching block storage endpoint")
	}

	computeCli := &computeClient{
		srv:           compute,
		blockStorage:  blockStorage,
		defaultFlavor: cfg.Default.DefaultFlavor,
	}
	volumeCli := &volumeClient{
		srv: blockStorage,
	}
	return computeCli, volumeCli, nil
}

func newProviderClient(cfg config.Nova) (*gophercloud.ProviderClient, error) {
	provider, err := openstack.NewClient(cfg.AuthURL)
	if err != nil {
		return nil, errors.Wrap(err, "creating provider client")
	}

	if cfg.CACert != "" {
		caCertPEM, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, errors.Wrap(err, "reading ca_cert")
		}
		roots := x509.NewCertPool()
		if ok := roots.AppendCertsFromPEM(caCertPEM); !ok {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		provider.HTTPClient = http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: roots,
				},
			},
		}
	}

	authOpts := gophercloud.AuthOptions{
		IdentityEndpoint: cfg.AuthURL,
		Username:         cfg.Username,
		Password:         cfg.Password,
		TenantName:       cfg.ProjectName,
		DomainName:       cfg.DomainName,
		AllowReauth:      true,
	}
	if err := openstack.Authenticate(provider, authOpts); err != nil {
		return nil, errors.Wrap(err, "authenticating with keystone")
	}
	return provider, nil
}

// computeClient implements ComputeAPI on top of the Nova v2 API.
type computeClient struct {
	srv *gophercloud.ServiceClient
	// blockStorage is needed to resolve which server a volume is
	// attached to when detaching by volume id alone.
	blockStorage  *gophercloud.ServiceClient
	defaultFlavor string
}

// serverWithExt pulls in the OS-EXT-STS extension fields, which carry
// the vm_state and task_state we derive OCCI state from.
type serverWithExt struct {
	servers.Server
	extendedstatus.ServerExtendedStatusExt
}

func (c *computeClient) Create(_ context.Context, opts CreateOpts) ([]Instance, error) {
	if opts.KeyName != "" && opts.KeyData != "" {
		// Register the public key before referencing it by name. An
		// already registered key with the same name is not an error.
		_, err := keypairs.Create(c.srv, keypairs.CreateOpts{
			Name:      opts.KeyName,
			PublicKey: opts.KeyData,
		}).Extract()
		if err != nil && !isConflictError(err) {
			return nil, errors.Wrap(err, "registering keypair")
		}
	}

	var createOpts servers.CreateOptsBuilder = servers.CreateOpts{
		Name:           opts.Name,
		FlavorRef:      opts.FlavorID,
		ImageRef:       opts.ImageID,
		SecurityGroups: opts.SecurityGroups,
		AdminPass:      opts.AdminPass,
		Min:            opts.MinCount,
		Max:            opts.MaxCount,
	}
	if opts.KeyName != "" {
		createOpts = keypairs.CreateOptsExt{
			CreateOptsBuilder: createOpts,
			KeyName:           opts.KeyName,
		}
	}

	var created serverWithExt
	if err := servers.Create(c.srv, createOpts).ExtractInto(&created); err != nil {
		return nil, errors.Wrap(err, "creating server")
	}

	instance := serverToInstance(created)
	instance.AdminPass = created.AdminPass
	if instance.AdminPass == "" {
		instance.AdminPass = opts.AdminPass
	}
	return []Instance{instance}, nil
}

func (c *computeClient) Get(_ context.Context, id string) (Instance, error) {
	var srv serverWithExt
	if err := servers.Get(c.srv, id).ExtractInto(&srv); err != nil {
		if isNotFoundError(err) {
			return Instance{}, errors.Wrapf(ErrNotFound, "fetching server %s", id)
		}
		return Instance{}, errors.Wrap(err, "fetching server")
	}
	return serverToInstance(srv), nil
}

func (c *computeClient) List(_ context.Context) ([]Instance, error) {
	// Nova omits deleted servers from listings unless explicitly
	// requested, which matches what the glue layer wants.
	pages, err := servers.List(c.srv, servers.ListOpts{}).AllPages()
	if err != nil {
		return nil, errors.Wrap(err, "listing servers")
	}

	var allServers []serverWithExt
	if err := servers.ExtractServersInto(pages, &allServers); err != nil {
		return nil, errors.Wrap(err, "extracting servers")
	}

	ret := make([]Instance, 0, len(allServers))
	for _, srv := range allServers {
		ret = append(ret, serverToInstance(srv))
	}
	return ret, nil
}

func (c *computeClient) Delete(_ context.Context, id string) error {
	if err := servers.Delete(c.srv, id).ExtractErr(); err != nil {
		if isNotFoundError(err) {
			return errors.Wrapf(ErrNotFound, "deleting server %s", id)
		}
		return errors.Wrap(err, "deleting server")
	}
	return nil
}

func (c *computeClient) SoftDelete(ctx context.Context, id string) error {
	// Nova defers reclamation server side when its
	// reclaim_instance_interval is set; the delete call is the same.
	return c.Delete(ctx, id)
}

func (c *computeClient) Pause(_ context.Context, id string) error {
	return c.mapStateErr(pauseunpause.Pause(c.srv, id).ExtractErr(), "pausing server")
}

func (c *computeClient) Resume(_ context.Context, id string) error {
	return c.mapStateErr(suspendresume.Resume(c.srv, id).ExtractErr(), "resuming server")
}

func (c *computeClient) Suspend(_ context.Context, id string) error {
	return c.mapStateErr(suspendresume.Suspend(c.srv, id).ExtractErr(), "suspending server")
}

func (c *computeClient) Reboot(_ context.Context, id string, rebootType RebootType) error {
	err := servers.Reboot(c.srv, id, servers.RebootOpts{
		Type: servers.RebootMethod(rebootType),
	}).ExtractErr()
	return c.mapStateErr(err, "rebooting server")
}

func (c *computeClient) Resize(_ context.Context, id string, flavorID string) error {
	err := servers.Resize(c.srv, id, servers.ResizeOpts{
		FlavorRef: flavorID,
	}).ExtractErr()
	return c.mapStateErr(err, "resizing server")
}

func (c *computeClient) ConfirmResize(_ context.Context, id string) error {
	return c.mapStateErr(servers.ConfirmResize(c.srv, id).ExtractErr(), "confirming resize")
}

func (c *computeClient) Rebuild(_ context.Context, id, imageID, adminPass string) error {
	_, err := servers.Rebuild(c.srv, id, servers.RebuildOpts{
		ImageRef:  imageID,
		AdminPass: adminPass,
	}).Extract()
	if err != nil {
		if isBadRequestError(err) {
			// Nova rejects unknown image references on rebuild with a
			// bad request.
			return errors.Wrapf(ErrImageNotFound, "rebuilding server %s", id)
		}
		return c.mapStateErr(err, "rebuilding server")
	}
	return nil
}

func (c *computeClient) Snapshot(_ context.Context, id, imageName string) error {
	_, err := servers.CreateImage(c.srv, id, servers.CreateImageOpts{
		Name: imageName,
	}).ExtractImageID()
	return c.mapStateErr(err, "snapshotting server")
}

func (c *computeClient) SetAdminPassword(_ context.Context, id, password string) error {
	if err := servers.ChangeAdminPassword(c.srv, id, password).ExtractErr(); err != nil {
		return errors.Wrapf(ErrPasswordSetFailed, "setting admin password: %q", err)
	}
	return nil
}

func (c *computeClient) GetConsole(_ context.Context, id string, consoleType ConsoleType) (Console, error) {
	if consoleType != NoVNC {
		return Console{}, fmt.Errorf("unsupported console type: %s", consoleType)
	}
	console, err := remoteconsoles.Create(c.srv, id, remoteconsoles.CreateOpts{
		Protocol: remoteconsoles.ConsoleProtocolVNC,
		Type:     remoteconsoles.ConsoleTypeNoVNC,
	}).Extract()
	if err != nil {
		if isNotFoundError(err) {
			return Console{}, errors.Wrapf(ErrNotFound, "fetching console for %s", id)
		}
		return Console{}, errors.Wrap(err, "fetching console")
	}
	return Console{
		Type: consoleType,
		URL:  console.URL,
	}, nil
}

func (c *computeClient) GetFlavorByName(_ context.Context, name string) (Flavor, error) {
	pages, err := flavors.ListDetail(c.srv, flavors.ListOpts{}).AllPages()
	if err != nil {
		return Flavor{}, errors.Wrap(err, "listing flavors")
	}
	allFlavors, err := flavors.ExtractFlavors(pages)
	if err != nil {
		return Flavor{}, errors.Wrap(err, "extracting flavors")
	}
	for _, flavor := range allFlavors {
		if flavor.Name == name {
			return Flavor{
				ID:    flavor.ID,
				Name:  flavor.Name,
				VCPUs: flavor.VCPUs,
				RAM:   flavor.RAM,
				Disk:  flavor.Disk,
			}, nil
		}
	}
	return Flavor{}, errors.Wrapf(ErrFlavorNotFound, "looking for flavor %s", name)
}

func (c *computeClient) DefaultFlavor(ctx context.Context) (Flavor, error) {
	return c.GetFlavorByName(ctx, c.defaultFlavor)
}

func (c *computeClient) AttachVolume(_ context.Context, serverID, volumeID, device string) error {
	_, err := volumeattach.Create(c.srv, serverID, volumeattach.CreateOpts{
		VolumeID: volumeID,
		Device:   device,
	}).Extract()
	if err != nil {
		if isBadRequestError(err) {
			return errors.Wrapf(ErrInvalidDevicePath, "attaching volume to %s", device)
		}
		if isNotFoundError(err) {
			return errors.Wrapf(ErrNotFound, "attaching volume %s", volumeID)
		}
		return errors.Wrap(err, "attaching volume")
	}
	return nil
}

func (c *computeClient) DetachVolume(ctx context.Context, volumeID string) error {
	vol, err := (&volumeClient{srv: c.blockStorage}).Get(ctx, volumeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errors.Wrapf(ErrInvalidVolume, "detaching volume %s", volumeID)
		}
		return errors.Wrap(err, "fetching volume")
	}
	if len(vol.Attachments) == 0 {
		return errors.Wrapf(ErrVolumeUnattached, "detaching volume %s", volumeID)
	}

	// Nova uses the volume id as the attachment id.
	serverID := vol.Attachments[0].ServerID
	if err := volumeattach.Delete(c.srv, serverID, volumeID).ExtractErr(); err != nil {
		if isNotFoundError(err) {
			return errors.Wrapf(ErrInvalidVolume, "detaching volume %s", volumeID)
		}
		return errors.Wrap(err, "detaching volume")
	}
	return nil
}

// mapStateErr remaps the conflict Nova returns when an instance cannot
// perform the requested transition into ErrInvalidState.
func (c *computeClient) mapStateErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isConflictError(err) {
		return errors.Wrapf(ErrInvalidState, "%s: %q", msg, err)
	}
	if isNotFoundError(err) {
		return errors.Wrap(ErrNotFound, msg)
	}
	return errors.Wrap(err, msg)
}

func serverToInstance(srv serverWithExt) Instance {
	var addresses []string
	for _, network := range srv.Addresses {
		list, ok := network.([]interface{})
		if !ok {
			continue
		}
		for _, item := range list {
			details, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if addr, ok := details["addr"].(string); ok {
				addresses = append(addresses, addr)
			}
		}
	}

	var flavorID, imageID string
	if id, ok := srv.Flavor["id"].(string); ok {
		flavorID = id
	}
	if id, ok := srv.Image["id"].(string); ok {
		imageID = id
	}

	return Instance{
		ID:        srv.ID,
		Name:      srv.Name,
		VMState:   VMState(srv.VmState),
		TaskState: TaskState(srv.TaskState),
		FlavorID:  flavorID,
		ImageID:   imageID,
		Addresses: addresses,
	}
}
