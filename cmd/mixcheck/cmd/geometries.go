/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/flight/mixer"
)

func init() {
	RootCmd.AddCommand(geometriesCmd)
}

func fmtScale(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func runGeometries() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"geometry", "rotor", "roll", "pitch", "yaw", "thrust"})
	for _, key := range mixer.Geometries() {
		geometry, err := mixer.GeometryByKey(key)
		if err != nil {
			log.Errorf("geometry %q: %v", key, err)
			continue
		}
		for i, r := range geometry {
			table.Append([]string{
				key,
				strconv.Itoa(i),
				fmtScale(r.RollScale),
				fmtScale(r.PitchScale),
				fmtScale(r.YawScale),
				fmtScale(r.ThrustScale),
			})
		}
	}
	table.Render()
}

var geometriesCmd = &cobra.Command{
	Use:   "geometries",
	Short: "List built-in rotor geometries and their mixing scales.",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		runGeometries()
	},
}
