package common

import "fmt"

type LTypeId int

const (
	LTID_INVALID  LTypeId = 0
	LTID_NULL     LTypeId = 1
	LTID_UNKNOWN  LTypeId = 2
	LTID_ANY      LTypeId = 3
	LTID_BOOLEAN  LTypeId = 10
	LTID_INTEGER  LTypeId = 13
	LTID_BIGINT   LTypeId = 14
	LTID_DATE     LTypeId = 15
	LTID_DECIMAL  LTypeId = 21
	LTID_FLOAT    LTypeId = 22
	LTID_DOUBLE   LTypeId = 23
	LTID_CHAR     LTypeId = 24
	LTID_VARCHAR  LTypeId = 25
	LTID_BLOB     LTypeId = 26
	LTID_UBIGINT  LTypeId = 31
	LTID_HUGEINT  LTypeId = 50
	LTID_POINTER  LTypeId = 51
	LTID_VALIDITY LTypeId = 53
)

var lTypeIdToStr = map[LTypeId]string{
	LTID_INVALID:  "LTID_INVALID",
	LTID_NULL:     "LTID_NULL",
	LTID_UNKNOWN:  "LTID_UNKNOWN",
	LTID_ANY:      "LTID_ANY",
	LTID_BOOLEAN:  "LTID_BOOLEAN",
	LTID_INTEGER:  "LTID_INTEGER",
	LTID_BIGINT:   "LTID_BIGINT",
	LTID_DATE:     "LTID_DATE",
	LTID_DECIMAL:  "LTID_DECIMAL",
	LTID_FLOAT:    "LTID_FLOAT",
	LTID_DOUBLE:   "LTID_DOUBLE",
	LTID_CHAR:     "LTID_CHAR",
	LTID_VARCHAR:  "LTID_VARCHAR",
	LTID_BLOB:     "LTID_BLOB",
	LTID_UBIGINT:  "LTID_UBIGINT",
	LTID_HUGEINT:  "LTID_HUGEINT",
	LTID_POINTER:  "LTID_POINTER",
	LTID_VALIDITY: "LTID_VALIDITY",
}

func (id LTypeId) String() string {
	if s, has := lTypeIdToStr[id]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", id))
}
