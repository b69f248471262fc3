// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v5"
)

func Parse(s string) ([]*pg_query.RawStmt, error) {
	result, err := pg_query.Parse(s)
	if err != nil {
		return nil, err
	}
	return result.Stmts, nil
}

// SortQuery is the sortable shape of a query: single table, plain
// column projection, ORDER BY with one direction. Projection nil means
// star.
type SortQuery struct {
	Table      string
	Projection []string
	Keys       []string
	Ascending  bool
	NullsFirst bool
}

var (
	ErrNotSelect    = errors.New("not a single select statement")
	ErrNoOrderBy    = errors.New("no order by clause")
	ErrMixedOrder   = errors.New("mixed sort directions are not supported")
	ErrNotSingleTab = errors.New("query must read exactly one table")
)

// ExtractSortQuery narrows a SQL text to the sortable shape. Anything
// beyond SELECT cols FROM tab ORDER BY keys is rejected: the engine
// sorts, it does not plan.
func ExtractSortQuery(sql string) (*SortQuery, error) {
	stmts, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, ErrNotSelect
	}
	sel := stmts[0].GetStmt().GetSelectStmt()
	if sel == nil {
		return nil, ErrNotSelect
	}
	if sel.GetWhereClause() != nil ||
		len(sel.GetGroupClause()) != 0 ||
		sel.GetHavingClause() != nil ||
		sel.GetLimitCount() != nil ||
		len(sel.GetDistinctClause()) != 0 ||
		len(sel.GetWithClause().GetCtes()) != 0 {
		return nil, fmt.Errorf("unsupported query shape: only projection and order by are handled")
	}

	from := sel.GetFromClause()
	if len(from) != 1 {
		return nil, ErrNotSingleTab
	}
	rangeVar := from[0].GetRangeVar()
	if rangeVar == nil {
		return nil, ErrNotSingleTab
	}
	ret := &SortQuery{
		Table: rangeVar.GetRelname(),
	}

	for _, target := range sel.GetTargetList() {
		colRef := target.GetResTarget().GetVal().GetColumnRef()
		if colRef == nil {
			return nil, fmt.Errorf("unsupported projection: plain columns only")
		}
		fields := colRef.GetFields()
		if len(fields) != 1 {
			return nil, fmt.Errorf("unsupported projection: qualified names are not handled")
		}
		if fields[0].GetAStar() != nil {
			if len(sel.GetTargetList()) != 1 {
				return nil, fmt.Errorf("star mixes with named columns")
			}
			break
		}
		name := fields[0].GetString_().GetSval()
		if len(name) == 0 {
			return nil, fmt.Errorf("unsupported projection: plain columns only")
		}
		ret.Projection = append(ret.Projection, name)
	}

	sortClause := sel.GetSortClause()
	if len(sortClause) == 0 {
		return nil, ErrNoOrderBy
	}
	dirSet := false
	for _, node := range sortClause {
		sortBy := node.GetSortBy()
		if sortBy == nil {
			return nil, ErrNoOrderBy
		}
		colRef := sortBy.GetNode().GetColumnRef()
		if colRef == nil || len(colRef.GetFields()) != 1 {
			return nil, fmt.Errorf("order by supports plain column keys only")
		}
		name := colRef.GetFields()[0].GetString_().GetSval()
		if len(name) == 0 {
			return nil, fmt.Errorf("order by supports plain column keys only")
		}

		asc := true
		if sortBy.GetSortbyDir() == pg_query.SortByDir_SORTBY_DESC {
			asc = false
		}
		// postgres defaults: nulls sort as largest
		nullsFirst := !asc
		switch sortBy.GetSortbyNulls() {
		case pg_query.SortByNulls_SORTBY_NULLS_FIRST:
			nullsFirst = true
		case pg_query.SortByNulls_SORTBY_NULLS_LAST:
			nullsFirst = false
		}

		if !dirSet {
			ret.Ascending = asc
			ret.NullsFirst = nullsFirst
			dirSet = true
		} else if ret.Ascending != asc || ret.NullsFirst != nullsFirst {
			return nil, ErrMixedOrder
		}
		ret.Keys = append(ret.Keys, name)
	}
	return ret, nil
}
