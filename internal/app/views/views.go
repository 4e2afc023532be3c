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


// Package views computes the view models of the DAO client. Every view is a
// binder configuration: a stream built from the view props and a function
// turning the latest emission into a JSON friendly model.
package views

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/profile"
	"github.com/insolar/dao-observer/internal/pkg/stream"
	"github.com/insolar/dao-observer/observability"
)

type Views struct {
	obs      *observability.Observability
	log      logrus.FieldLogger
	source   observer.Source
	profiles *profile.Cache
	clock    clockwork.Clock
	genToken common.Address
}

func New(
	cfg *configuration.Configuration,
	obs *observability.Observability,
	source observer.Source,
	profiles *profile.Cache,
	clock clockwork.Clock,
) *Views {
	return &Views{
		obs:      obs,
		log:      obs.Log().WithField("component", "views"),
		source:   source,
		profiles: profiles,
		clock:    clock,
		genToken: common.HexToAddress(cfg.Source.GENToken),
	}
}

// Output is a rendered view: a placeholder while loading or failed, the view
// model once ready.
type Output[T any] struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	View  *T     `json:"view,omitempty"`
}

func loading[P, T any](P) Output[T] {
	return Output[T]{State: binder.Loading.String()}
}

func failed[P, T any](_ P, err error) Output[T] {
	return Output[T]{State: binder.Failed.String(), Error: err.Error()}
}

func ready[T any](v T) Output[T] {
	return Output[T]{State: binder.Ready.String(), View: &v}
}

// profile emits the cached profile of address, loading it on subscribe when
// missing. A failed load emits an empty profile.
func (v *Views) profile(address common.Address) stream.Observable[observer.Profile] {
	return stream.Func[observer.Profile](func(next func(observer.Profile), _ func(error)) func() {
		if p, ok := v.profiles.Peek(address); ok {
			next(p)
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			p, err := v.profiles.Get(ctx, address)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				v.log.WithError(err).WithField("address", address.Hex()).Warn("rendering without profile")
				p = observer.Profile{Address: address}
			}
			next(p)
		}()
		return cancel
	})
}

// PrefetchProfiles starts loading profiles that later renders will ask for.
func (v *Views) PrefetchProfiles(ctx context.Context, addresses ...common.Address) <-chan struct{} {
	return v.profiles.Prefetch(ctx, addresses...)
}

// Account is how an address is shown next to the content it created.
type Account struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

func account(address common.Address, p observer.Profile) Account {
	return Account{Address: address.Hex(), Name: p.Name}
}

type Social struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

var socialBases = []struct {
	network string
	base    string
}{
	{"twitter", "https://twitter.com/"},
	{"github", "https://github.com/"},
}

func socials(p observer.Profile) []Social {
	var out []Social
	for _, s := range socialBases {
		if username := p.SocialURLs[s.network]; username != "" {
			out = append(out, Social{Network: s.network, URL: s.base + username})
		}
	}
	return out
}

var wei = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// fromWei converts an 18 decimals amount. Nil is 0.
func fromWei(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), wei).Float64()
	return f
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
