//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//


package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	for _, table := range Tables {
		created, dropped := false, false
		for _, q := range initialUp {
			if strings.HasPrefix(q, "CREATE TABLE "+table+" (") {
				created = true
			}
		}
		for _, q := range initialDown {
			if q == "DROP TABLE "+table {
				dropped = true
			}
		}
		require.True(t, created, table)
		require.True(t, dropped, table)
	}
	require.Len(t, initialDown, len(initialUp))
	require.Len(t, indexesDown, len(indexesUp))
}
