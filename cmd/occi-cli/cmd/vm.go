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

package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brene/occi-os/nova"
	"github.com/brene/occi-os/params"
)

var (
	vmHostname    string
	vmImage       string
	vmFlavor      string
	vmSecGroups   []string
	restartMethod string
	snapshotName  string
)

// vmCmd represents the vm command
var vmCmd = &cobra.Command{
	Use:          "vm",
	SilenceUsage: true,
	Short:        "Manage VMs",
	Long:         `Create, inspect and drive the lifecycle of compute instances.`,
	Run:          nil,
}

var vmListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List VMs",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		instances, err := vmGlue.List(cliContext())
		if err != nil {
			return err
		}
		formatInstances(instances)
		return nil
	},
}

var vmShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Show one VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		instance, err := vmGlue.Get(cliContext(), args[0])
		if err != nil {
			return err
		}
		formatOneInstance(instance)
		return nil
	},
}

var vmStateCmd = &cobra.Command{
	Use:          "state",
	Short:        "Show the OCCI state of a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		state, actions, err := vmGlue.State(cliContext(), args[0])
		if err != nil {
			return err
		}
		actionNames := make([]string, len(actions))
		for i, action := range actions {
			actionNames[i] = string(action)
		}
		fmt.Printf("state: %s\nactions: %s\n", state, strings.Join(actionNames, ", "))
		return nil
	},
}

var vmCreateCmd = &cobra.Command{
	Use:          "create",
	Short:        "Create a VM",
	Long:         `Boot a new instance from an image, optionally picking a flavor and security groups.`,
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		if vmImage == "" {
			return fmt.Errorf("requires --image")
		}

		resource := params.ResourceDescription{
			Attributes: map[string]string{},
			Mixins: []params.Mixin{
				{Kind: params.OsTemplate, ImageID: vmImage},
			},
		}
		if vmHostname != "" {
			resource.Attributes[params.HostnameAttr] = vmHostname
		}
		if vmFlavor != "" {
			resource.Mixins = append(resource.Mixins, params.Mixin{
				Kind: params.ResourceTemplate,
				Term: vmFlavor,
			})
		}
		for _, group := range vmSecGroups {
			resource.Mixins = append(resource.Mixins, params.Mixin{
				Kind: params.SecurityGroupExtension,
				Term: group,
			})
		}

		instance, err := vmGlue.Create(cliContext(), resource)
		if err != nil {
			return err
		}
		formatOneInstance(instance)
		return nil
	},
}

var vmStartCmd = &cobra.Command{
	Use:          "start",
	Short:        "Start a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		return vmGlue.Start(cliContext(), args[0])
	},
}

var vmStopCmd = &cobra.Command{
	Use:          "stop",
	Short:        "Stop a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		return vmGlue.Stop(cliContext(), args[0])
	},
}

var vmSuspendCmd = &cobra.Command{
	Use:          "suspend",
	Short:        "Suspend a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		return vmGlue.Suspend(cliContext(), args[0])
	},
}

var vmRestartCmd = &cobra.Command{
	Use:          "restart",
	Short:        "Restart a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		return vmGlue.Restart(cliContext(), args[0], params.RestartMethod(restartMethod))
	},
}

var vmResizeCmd = &cobra.Command{
	Use:          "resize",
	Short:        "Resize a VM to a new flavor",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("requires an instance id and a flavor name")
		}
		return vmGlue.Resize(cliContext(), args[0], args[1])
	},
}

var vmRebuildCmd = &cobra.Command{
	Use:          "rebuild",
	Short:        "Rebuild a VM from an image",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("requires an instance id and an image id")
		}
		return vmGlue.Rebuild(cliContext(), args[0], args[1])
	},
}

var vmSnapshotCmd = &cobra.Command{
	Use:          "snapshot",
	Short:        "Snapshot a VM into a new image",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		name := snapshotName
		if name == "" {
			name = fmt.Sprintf("snapshot-%s", uuid.New().String())
		}
		if err := vmGlue.Snapshot(cliContext(), args[0], name); err != nil {
			return err
		}
		fmt.Printf("snapshotting into image %s\n", name)
		return nil
	},
}

var vmDeleteCmd = &cobra.Command{
	Use:          "delete",
	Aliases:      []string{"remove", "rm"},
	Short:        "Delete a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		return vmGlue.Delete(cliContext(), args[0])
	},
}

var vmConsoleCmd = &cobra.Command{
	Use:          "console",
	Short:        "Fetch the remote console URL of a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires an instance id")
		}
		console, err := vmGlue.GetConsole(cliContext(), args[0])
		if err != nil {
			return err
		}
		if console == nil {
			fmt.Println("no console available")
			return nil
		}
		fmt.Println(console.URL)
		return nil
	},
}

var vmPasswordCmd = &cobra.Command{
	Use:          "password",
	Short:        "Set the admin password of a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("requires an instance id and a password")
		}
		return vmGlue.SetPassword(cliContext(), args[0], args[1])
	},
}

var vmAttachCmd = &cobra.Command{
	Use:          "attach",
	Short:        "Attach a volume to a VM",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 3 {
			return fmt.Errorf("requires an instance id, a volume id and a device path")
		}
		return vmGlue.AttachVolume(cliContext(), args[0], args[1], args[2])
	},
}

var vmDetachCmd = &cobra.Command{
	Use:          "detach",
	Short:        "Detach a volume",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires a volume id")
		}
		return vmGlue.DetachVolume(cliContext(), args[0])
	},
}

func init() {
	vmCreateCmd.Flags().StringVar(&vmHostname, "hostname", "", "hostname of the new instance")
	vmCreateCmd.Flags().StringVar(&vmImage, "image", "", "boot image id")
	vmCreateCmd.Flags().StringVar(&vmFlavor, "flavor", "", "flavor name (provider default when empty)")
	vmCreateCmd.Flags().StringSliceVar(&vmSecGroups, "security-group", nil, "security group to place the instance in (repeatable)")
	vmRestartCmd.Flags().StringVar(&restartMethod, "method", string(params.RestartGraceful), "restart method: graceful, warm or cold")
	vmSnapshotCmd.Flags().StringVar(&snapshotName, "image-name", "", "name of the snapshot image")

	vmCmd.AddCommand(
		vmListCmd,
		vmShowCmd,
		vmStateCmd,
		vmCreateCmd,
		vmStartCmd,
		vmStopCmd,
		vmSuspendCmd,
		vmRestartCmd,
		vmResizeCmd,
		vmRebuildCmd,
		vmSnapshotCmd,
		vmDeleteCmd,
		vmConsoleCmd,
		vmPasswordCmd,
		vmAttachCmd,
		vmDetachCmd,
	)

	rootCmd.AddCommand(vmCmd)
}

func formatInstances(instances []nova.Instance) {
	t := table.NewWriter()
	header := table.Row{"ID", "Name", "VM State", "Task State", "Addresses"}
	t.AppendHeader(header)
	for _, instance := range instances {
		t.AppendRow(table.Row{
			instance.ID,
			instance.Name,
			instance.VMState,
			instance.TaskState,
			strings.Join(instance.Addresses, ", "),
		})
	}
	fmt.Println(t.Render())
}

func formatOneInstance(instance nova.Instance) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"ID", instance.ID})
	t.AppendRow(table.Row{"Name", instance.Name})
	t.AppendRow(table.Row{"VM State", instance.VMState})
	t.AppendRow(table.Row{"Task State", instance.TaskState})
	t.AppendRow(table.Row{"Flavor", instance.FlavorID})
	t.AppendRow(table.Row{"Image", instance.ImageID})
	t.AppendRow(table.Row{"Addresses", strings.Join(instance.Addresses, ", ")})
	if instance.AdminPass != "" {
		t.AppendRow(table.Row{"Admin Password", instance.AdminPass})
	}
	fmt.Println(t.Render())
}
