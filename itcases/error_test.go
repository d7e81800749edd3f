/*
 * Copyright 2024 The Datalayers SDK Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package itcases

import (
	"context"
	"testing"

	datalayers "github.com/datalayers-io/datalayers-sdk/go"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

func TestHandshakeFail(t *testing.T) {
	config := NewConfig(t)
	config.Password = RandomName(t)

	_, err := datalayers.Connect(context.Background(), config)
	require.Error(t, err)
	require.Equal(t, datalayers.KindHandshake, datalayers.KindOf(err))
}

func TestExecuteFail(t *testing.T) {
	c := NewClient(t)
	defer c.Close()

	ctx := context.Background()

	_, err := c.Execute(ctx, "SELECT UNKNOWN_FUNCTION()")
	require.Error(t, err)
	require.Equal(t, datalayers.KindExecution, datalayers.KindOf(err))
	snaps.MatchSnapshot(t, datalayers.FilterMessage(err.Error()))
}

func TestPrepareFail(t *testing.T) {
	c := NewClient(t)
	defer c.Close()

	ctx := context.Background()

	_, err := c.Prepare(ctx, "SELECT * FROM "+RandomName(t)+".missing WHERE sid = ?")
	require.Error(t, err)
	snaps.MatchSnapshot(t, datalayers.FilterMessage(err.Error()))
}
