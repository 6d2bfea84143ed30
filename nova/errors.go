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
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud"
	"github.com/pkg/errors"
)

// Sentinel error kinds a ComputeAPI or VolumeAPI implementation must
// surface. Not-found and invalid-state are routine outcomes for the
// glue layer, not exceptional ones, so they are plain values callers
// check with errors.Is.
var (
	ErrNotFound          = fmt.Errorf("resource not found")
	ErrInvalidState      = fmt.Errorf("instance is in an invalid state")
	ErrInvalidDevicePath = fmt.Errorf("invalid device path")
	ErrImageNotFound     = fmt.Errorf("image not found")
	ErrFlavorNotFound    = fmt.Errorf("flavor not found")
	ErrInvalidVolume     = fmt.Errorf("invalid volume")
	ErrVolumeUnattached  = fmt.Errorf("volume is not attached")
	ErrPasswordSetFailed = fmt.Errorf("failed to set admin password")
)

// isStatusError returns true if err is a gophercloud response error
// carrying the given HTTP status.
func isStatusError(err error, status int) bool {
	var respErr gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErr) {
		return respErr.Actual == status
	}
	return false
}

func isNotFoundError(err error) bool {
	var notFound gophercloud.ErrDefault404
	if errors.As(err, &notFound) {
		return true
	}
	var resNotFound gophercloud.ErrResourceNotFound
	if errors.As(err, &resNotFound) {
		return true
	}
	return isStatusError(err, http.StatusNotFound)
}

func isConflictError(err error) bool {
	var conflict gophercloud.ErrDefault409
	if errors.As(err, &conflict) {
		return true
	}
	return isStatusError(err, http.StatusConflict)
}

func isBadRequestError(err error) bool {
	var badReq gophercloud.ErrDefault400
	if errors.As(err, &badReq) {
		return true
	}
	return isStatusError(err, http.StatusBadRequest)
}
