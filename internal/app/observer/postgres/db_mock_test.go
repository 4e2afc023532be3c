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


package postgres

import (
	"context"

	"github.com/go-pg/pg/orm"
)

type DBMock struct {
	orm.DB
	query    func(ctx context.Context, model, query interface{}, params ...interface{}) (orm.Result, error)
	queryOne func(ctx context.Context, model, query interface{}, params ...interface{}) (orm.Result, error)
}

func (m *DBMock) QueryContext(ctx context.Context, model, query interface{}, params ...interface{}) (orm.Result, error) {
	return m.query(ctx, model, query, params...)
}

func (m *DBMock) QueryOneContext(ctx context.Context, model, query interface{}, params ...interface{}) (orm.Result, error) {
	return m.queryOne(ctx, model, query, params...)
}

type resultMock struct {
	orm.Result
	rows int
}

func makeResult(rows int) orm.Result {
	return &resultMock{rows: rows}
}

func (m *resultMock) RowsReturned() int {
	return m.rows
}

func (m *resultMock) RowsAffected() int {
	return m.rows
}
