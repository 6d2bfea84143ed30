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

package params

type MixinKind string
type ComputeState string
type Action string
type RestartMethod string

const (
	// HostnameAttr is the OCCI attribute holding the desired hostname
	// of a new compute resource. It becomes the display name of the
	// instance in the compute provider.
	HostnameAttr = "occi.compute.hostname"
	// PublicKeyNameAttr is the attribute holding the name under which
	// an SSH public key should be registered.
	PublicKeyNameAttr = "org.openstack.credentials.publickey.name"
	// PublicKeyDataAttr is the attribute holding the SSH public key
	// material itself.
	PublicKeyDataAttr = "org.openstack.credentials.publickey.data"
)

const (
	// ResourceTemplate mixins name a flavor in the compute provider.
	ResourceTemplate MixinKind = "resource_template"
	// OsTemplate mixins name the boot image of a new instance.
	OsTemplate MixinKind = "os_template"
	// KeyPairExtension mixins signal that the public key attributes
	// are set on the resource and should be passed to the provider.
	KeyPairExtension MixinKind = "key_pair"
	// SecurityGroupExtension mixins contribute their term to the list
	// of security groups the new instance is placed in.
	SecurityGroupExtension MixinKind = "security_group"
)

const (
	// StateActive means the VM can service requests from the network.
	StateActive ComputeState = "active"
	// StateInactive is everything that is not active or suspended.
	StateInactive ComputeState = "inactive"
	// StateSuspended means the machine is in a frozen state.
	StateSuspended ComputeState = "suspended"
)

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionSuspend Action = "suspend"
)

const (
	// RestartGraceful and RestartWarm request a soft reboot of the
	// instance. RestartCold requests a hard one.
	RestartGraceful RestartMethod = "graceful"
	RestartWarm     RestartMethod = "warm"
	RestartCold     RestartMethod = "cold"
)

// Mixin is one OCCI mixin attached to a resource description. It is a
// closed set of variants; Kind selects which of the remaining fields
// carry meaning.
type Mixin struct {
	// Kind is the variant tag of this mixin.
	Kind MixinKind `json:"kind"`
	// Term is the OCCI category term. For a ResourceTemplate it names
	// a flavor, for a SecurityGroupExtension it names the group. Unused
	// by the other kinds.
	Term string `json:"term,omitempty"`
	// ImageID is the boot image reference carried by an OsTemplate.
	ImageID string `json:"image_id,omitempty"`
}

// ResourceDescription is the protocol level view of a compute resource,
// as sent by the OCCI frontend. It is treated as immutable for the
// duration of one glue operation.
type ResourceDescription struct {
	// Attributes maps dot-namespaced OCCI attribute names to values.
	Attributes map[string]string `json:"attributes,omitempty"`
	// Mixins is the ordered list of mixins attached to the resource.
	// Order matters: when a kind that expects a single mixin appears
	// more than once, the last occurrence wins.
	Mixins []Mixin `json:"mixins,omitempty"`
}

// Hostname returns the requested hostname attribute, if set.
func (r ResourceDescription) Hostname() string {
	return r.Attributes[HostnameAttr]
}
