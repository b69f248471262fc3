package chunk

import (
	"errors"
	"fmt"
	"io"

	wire "github.com/jeroenrinzema/psql-wire"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
}

func (c *Chunk) Init(types []common.LType, cap int) {
	c._Cap = cap
	c.Data = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewVector2(lType, c._Cap))
	}
}

// Reset clears cards and masks but keeps the capacity the chunk was
// initialized with, so a reused output chunk wider than the default
// vector size stays wide.
func (c *Chunk) Reset() {
	if len(c.Data) == 0 {
		return
	}
	for _, vec := range c.Data {
		vec.Reset()
		if c._Cap > util.DefaultVectorSize {
			vec.Mask.Resize(util.DefaultVectorSize, c._Cap)
		}
	}
	c.Count = 0
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCap(cap int) {
	c._Cap = cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFunc(count <= c._Cap)
	c.Count = count
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) Types() []common.LType {
	typs := make([]common.LType, 0, c.ColumnCount())
	for _, vec := range c.Data {
		typs = append(typs, vec.Typ())
	}
	return typs
}

func (c *Chunk) Reference(other *Chunk) {
	util.AssertFunc(other.ColumnCount() <= c.ColumnCount())
	c.SetCap(other.Cap())
	c.SetCard(other.Card())
	for i := 0; i < other.ColumnCount(); i++ {
		c.Data[i].Reference(other.Data[i])
	}
}

func (c *Chunk) Print() {
	for i := 0; i < c.Card(); i++ {
		for j := 0; j < c.ColumnCount(); j++ {
			val := c.Data[j].GetValue(i)
			fmt.Print(val.String())
			fmt.Print("\t")
		}
		fmt.Println()
	}
}

func (c *Chunk) Serialize(serial util.Serialize) error {
	//save row count
	err := util.Write[uint32](uint32(c.Card()), serial)
	if err != nil {
		return err
	}
	//save column count
	err = util.Write[uint32](uint32(c.ColumnCount()), serial)
	if err != nil {
		return err
	}
	//save column types
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Typ().Serialize(serial)
		if err != nil {
			return err
		}
	}
	//save column data
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Serialize(c.Card(), serial)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunk) Deserialize(deserial util.Deserialize) error {
	//read row count
	rowCnt := uint32(0)
	err := util.Read[uint32](&rowCnt, deserial)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	//read column count
	colCnt := uint32(0)
	err = util.Read[uint32](&colCnt, deserial)
	if err != nil {
		return err
	}
	//read column types
	typs := make([]common.LType, colCnt)
	for i := uint32(0); i < colCnt; i++ {
		typs[i], err = common.DeserializeLType(deserial)
		if err != nil {
			return err
		}
	}
	c.Init(typs, util.DefaultVectorSize)
	c.SetCard(int(rowCnt))
	//read column data
	for i := uint32(0); i < colCnt; i++ {
		err = c.Data[i].Deserialize(int(rowCnt), deserial)
		if err != nil {
			return err
		}
	}
	return err
}

func (c *Chunk) SaveToWriter(writer wire.DataWriter) (err error) {
	rowCnt := c.Card()
	colCnt := c.ColumnCount()
	row := make([]any, colCnt)
	for i := 0; i < rowCnt; i++ {
		for j := 0; j < colCnt; j++ {
			val := c.Data[j].GetValue(i)
			row[j] = val.String()
		}
		err = writer.Row(row)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunk) Flatten() {
	for i := 0; i < c.ColumnCount(); i++ {
		c.Data[i].Flatten(c.Card())
	}
}
