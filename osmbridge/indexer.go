package osmbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogo/protobuf/proto"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/model"
	"github.com/tecbot/gorocksdb"
)

// Indexer maintains member/way/<way>/<relation> keys, so the relations
// referencing a way can be found without scanning every relation.
type Indexer struct {
	store *Store
}

func memberPrefix(wayID int64) string {
	return fmt.Sprintf("member/way/%d/", wayID)
}

func (i *Indexer) newRelation(rel *model.Relation, wb *gorocksdb.WriteBatch) {
	for _, m := range rel.GetMembers() {
		if feature.MemberType(m.GetType()) != feature.WayMember {
			continue
		}
		wb.Put([]byte(fmt.Sprintf("%s%d", memberPrefix(m.GetId()), rel.GetId())), []byte("1"))
	}
}

func (i *Indexer) removeRelation(rel *model.Relation, wb *gorocksdb.WriteBatch) {
	for _, m := range rel.GetMembers() {
		if feature.MemberType(m.GetType()) != feature.WayMember {
			continue
		}
		wb.Delete([]byte(fmt.Sprintf("%s%d", memberPrefix(m.GetId()), rel.GetId())))
	}
}

func (i *Indexer) relationsOf(wayID int64) ([]int64, error) {
	ro := gorocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)
	defer ro.Destroy()

	it := i.store.db.NewIterator(ro)
	defer it.Close()

	result := make([]int64, 0)
	prefix := memberPrefix(wayID)
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		key := it.Key()
		k := string(key.Data())
		key.Free()

		id, err := strconv.ParseInt(k[len(prefix):], 10, 64)
		if err != nil {
			return nil, err
		}
		result = append(result, id)
	}

	if err := it.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// reindex drops every membership key and rebuilds them from the stored
// relations.
func (i *Indexer) reindex() error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()

	ro := gorocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)
	defer ro.Destroy()

	it := i.store.db.NewIterator(ro)
	defer it.Close()

	for it.Seek([]byte("member/")); it.ValidForPrefix([]byte("member/")); it.Next() {
		key := it.Key()
		wb.Delete(append([]byte(nil), key.Data()...))
		key.Free()
	}

	for it.Seek([]byte("relation")); it.Valid(); it.Next() {
		key := it.Key()
		isRelation := strings.HasPrefix(string(key.Data()), "relation/")
		key.Free()
		if !isRelation {
			break
		}

		value := it.Value()
		rel := &model.Relation{}
		err := proto.Unmarshal(value.Data(), rel)
		value.Free()
		if err != nil {
			return err
		}

		i.newRelation(rel, wb)
	}

	if err := it.Err(); err != nil {
		return err
	}

	return i.store.db.Write(i.store.wo, wb)
}
