// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema

// DefaultSource - definitions used when no schema file is configured
const DefaultSource = `
local M = {}

M.resources = {
    Patient = {
        references = {
            "managingOrganization.reference",
            "generalPractitioner.reference",
            "link.other.reference",
        },
        search = {
            { code = "family", expression = "name.family" },
            { code = "given", expression = "name.given" },
            { code = "identifier", expression = "identifier.value" },
            { code = "birthdate", expression = "birthDate" },
        },
    },

    Organization = {
        references = {
            "partOf.reference",
        },
        search = {
            { code = "name", expression = "name" },
            { code = "identifier", expression = "identifier.value" },
        },
    },

    Practitioner = {
        search = {
            { code = "family", expression = "name.family" },
            { code = "identifier", expression = "identifier.value" },
        },
    },

    Encounter = {
        required = {
            "status",
        },
        references = {
            "subject.reference",
            "participant.individual.reference",
            "serviceProvider.reference",
            "partOf.reference",
        },
        search = {
            { code = "status", expression = "status" },
        },
    },

    Observation = {
        required = {
            "status",
            "code",
        },
        references = {
            "subject.reference",
            "encounter.reference",
            "performer.reference",
        },
        search = {
            { code = "code", expression = "code.coding.code" },
        },
    },
}

return M
`
