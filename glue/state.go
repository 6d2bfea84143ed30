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
	"github.com/brene/occi-os/nova"
	"github.com/brene/occi-os/params"
)

// DeriveState maps the provider's vm_state/task_state pair to the OCCI
// visible state and the set of actions the protocol layer may offer.
// It is a pure function of its inputs; no prior state is remembered.
//
// Mapping assumptions:
//   - active: the VM can service requests from the network
//   - inactive: it cannot
func DeriveState(vmState nova.VMState, taskState nova.TaskState) (params.ComputeState, []params.Action) {
	state := params.StateInactive
	actions := []params.Action{}

	switch vmState {
	case nova.VMStateActive:
		state = params.StateActive
		actions = append(actions, params.ActionStop, params.ActionSuspend, params.ActionRestart)
	case nova.VMStatePaused, nova.VMStateSuspended, nova.VMStateStopped:
		actions = append(actions, params.ActionStart)
	case nova.VMStateBuilding, nova.VMStateRescued, nova.VMStateError, nova.VMStateDeleted:
		// inactive, nothing applicable
	}

	// While the provider is snapshotting, nothing may be done with the
	// instance regardless of its vm_state. Applied last so it wins.
	if taskState == nova.TaskImageSnapshot {
		return params.StateInactive, []params.Action{}
	}

	return state, actions
}
