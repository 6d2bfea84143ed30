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

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/blockstorage/v3/volumes"
	"github.com/pkg/errors"
)

var _ VolumeAPI = &volumeClient{}

// volumeClient implements VolumeAPI on top of the Cinder v3 API.
type volumeClient struct {
	srv *gophercloud.ServiceClient
}

func (v *volumeClient) Get(_ context.Context, id string) (Volume, error) {
	vol, err := volumes.Get(v.srv, id).Extract()
	if err != nil {
		if isNotFoundError(err) {
			return Volume{}, errors.Wrapf(ErrNotFound, "fetching volume %s", id)
		}
		return Volume{}, errors.Wrap(err, "fetching volume")
	}

	attachments := make([]VolumeAttachment, 0, len(vol.Attachments))
	for _, attachment := range vol.Attachments {
		attachments = append(attachments, VolumeAttachment{
			ServerID: attachment.ServerID,
			Device:   attachment.Device,
		})
	}

	return Volume{
		ID:          vol.ID,
		Name:        vol.Name,
		Status:      vol.Status,
		Attachments: attachments,
	}, nil
}
