// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a new document identifier. Identifiers are MongoDB ObjectIDs
// in hexadecimal, so every backend accepts the same identifiers and they sort
// roughly in creation order.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ParseID returns the canonical form of id, or an *InvalidIDError if id could
// not have been returned by NewID.
func ParseID(collection, id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", &InvalidIDError{Collection: collection, ID: id, Err: err}
	}
	return oid.Hex(), nil
}
