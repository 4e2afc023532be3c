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


package component

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/connectivity"
	"github.com/insolar/dao-observer/observability"
)

func makeStopper(obs *observability.Observability, conn *connectivity.Connectivity, router *Router, e *echo.Echo) func() {
	log := obs.Log()
	return func() {
		if err := e.Shutdown(context.Background()); err != nil {
			log.Error(errors.Wrapf(err, "api server shutdown"))
		}

		router.Stop()

		if err := conn.Close(); err != nil {
			log.Error(errors.Wrapf(err, "failed to close db"))
		}
	}
}
