// Package domain contains the core model for tether: resources, users,
// configuration and the error taxonomy shared by every layer.
//
// The domain is transport- and persistence-agnostic: it does not depend on
// net/http, SQL drivers or the filesystem. Adapters map into/from these types.
package domain
