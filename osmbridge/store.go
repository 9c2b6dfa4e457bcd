package osmbridge

//go:generate protoc --gogo_out=. model/storage.proto

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/model"
	"github.com/rubenv/osmbridge/osmbridge/split"
	"github.com/tecbot/gorocksdb"
)

// Store keeps nodes, ways and relations in RocksDB, encoded as protobuf
// records under node/<id>, way/<id> and relation/<id>.
type Store struct {
	path    string
	db      *gorocksdb.DB
	indexer *Indexer

	wo *gorocksdb.WriteOptions
	ro *gorocksdb.ReadOptions

	// Serializes read-modify-write cycles on relations.
	relLocks [64]sync.Mutex

	lastNode int64
	lastWay  int64
}

var _ split.Store = (*Store)(nil)

func NewStore(storePath string) (*Store, error) {
	folder := path.Join(storePath, "ldb")
	err := os.MkdirAll(folder, 0755)
	if err != nil {
		return nil, err
	}

	store := &Store{
		path: storePath,
	}
	store.indexer = &Indexer{
		store: store,
	}

	opts := gorocksdb.NewDefaultOptions()
	bb := gorocksdb.NewDefaultBlockBasedTableOptions()
	bb.SetBlockCache(gorocksdb.NewLRUCache(512 << 20))
	bb.SetFilterPolicy(gorocksdb.NewBloomFilter(10))
	opts.SetCreateIfMissing(true)
	opts.SetBlockBasedTableFactory(bb)
	db, err := gorocksdb.OpenDb(opts, folder)
	if err != nil {
		return nil, err
	}
	store.db = db

	store.wo = gorocksdb.NewDefaultWriteOptions()
	store.ro = gorocksdb.NewDefaultReadOptions()
	store.ro.SetFillCache(false)

	store.lastNode, err = store.getCounter("node")
	if err != nil {
		db.Close()
		return nil, err
	}
	store.lastWay, err = store.getCounter("way")
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close persists the identity counters and closes the database.
func (s *Store) Close() error {
	err := s.saveCounters()
	s.db.Close()
	return err
}

func (s *Store) Reindex() error {
	return s.indexer.reindex()
}

func nodeKey(id int64) []byte {
	return []byte(fmt.Sprintf("node/%d", id))
}

func wayKey(id int64) []byte {
	return []byte(fmt.Sprintf("way/%d", id))
}

func relationKey(id int64) []byte {
	return []byte(fmt.Sprintf("relation/%d", id))
}

func (s *Store) addNewNodes(arr []*model.Node) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	for _, n := range arr {
		data, err := proto.Marshal(n)
		if err != nil {
			return err
		}
		wb.Put(nodeKey(n.GetId()), data)
		lower(&s.lastNode, n.GetId())
	}
	return s.db.Write(s.wo, wb)
}

func (s *Store) removeNode(n *model.Node) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	wb.Delete(nodeKey(n.GetId()))
	return s.db.Write(s.wo, wb)
}

func (s *Store) addNewWays(arr []*model.Way) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	for _, w := range arr {
		data, err := proto.Marshal(w)
		if err != nil {
			return err
		}
		wb.Put(wayKey(w.GetId()), data)
		lower(&s.lastWay, w.GetId())
	}
	return s.db.Write(s.wo, wb)
}

func (s *Store) removeWay(w *model.Way) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	wb.Delete(wayKey(w.GetId()))
	return s.db.Write(s.wo, wb)
}

func (s *Store) addNewRelations(arr []*model.Relation) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	for _, r := range arr {
		old, err := s.GetRelation(r.GetId())
		if err != nil {
			return err
		}
		if old != nil {
			s.indexer.removeRelation(old, wb)
		}

		data, err := proto.Marshal(r)
		if err != nil {
			return err
		}
		wb.Put(relationKey(r.GetId()), data)
		s.indexer.newRelation(r, wb)
	}
	return s.db.Write(s.wo, wb)
}

func (s *Store) removeRelation(r *model.Relation) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	s.indexer.removeRelation(r, wb)
	wb.Delete(relationKey(r.GetId()))
	return s.db.Write(s.wo, wb)
}

func (s *Store) get(key []byte, msg proto.Message) (bool, error) {
	n, err := s.db.Get(s.ro, key)
	if err != nil {
		return false, err
	}
	defer n.Free()

	if n.Size() == 0 {
		return false, nil
	}

	err = proto.Unmarshal(n.Data(), msg)
	if err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// GetNode returns nil when the node does not exist.
func (s *Store) GetNode(id int64) (*model.Node, error) {
	node := &model.Node{}
	ok, err := s.get(nodeKey(id), node)
	if !ok || err != nil {
		return nil, err
	}
	return node, nil
}

// GetWay returns nil when the way does not exist.
func (s *Store) GetWay(id int64) (*model.Way, error) {
	way := &model.Way{}
	ok, err := s.get(wayKey(id), way)
	if !ok || err != nil {
		return nil, err
	}
	return way, nil
}

// GetRelation returns nil when the relation does not exist.
func (s *Store) GetRelation(id int64) (*model.Relation, error) {
	rel := &model.Relation{}
	ok, err := s.get(relationKey(id), rel)
	if !ok || err != nil {
		return nil, err
	}
	return rel, nil
}

// MissingNodeError is returned for ways referencing a node that is not in
// the store, which happens for ways crossing the border of an extract.
type MissingNodeError struct {
	Way  int64
	Node int64
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("way %d references missing node %d", e.Way, e.Node)
}

func (s *Store) lineFromWay(way *model.Way) (*feature.Line, error) {
	l := &feature.Line{
		ID:      way.GetId(),
		Tags:    model.TagMap(way.GetTags()),
		Deleted: way.GetDeleted(),
	}
	for _, ref := range way.GetRefs() {
		n, err := s.GetNode(ref)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, &MissingNodeError{Way: way.GetId(), Node: ref}
		}
		l.Vertices = append(l.Vertices, VertexFromNode(n))
	}
	return l, nil
}

func (s *Store) Line(id int64) (*feature.Line, error) {
	way, err := s.GetWay(id)
	if err != nil {
		return nil, err
	}
	if way == nil {
		return nil, &split.LineNotFoundError{ID: id}
	}
	if way.GetDeleted() {
		return nil, &split.LineNotFoundError{ID: id, Deleted: true}
	}
	return s.lineFromWay(way)
}

func (s *Store) AddVertex(v feature.Vertex) error {
	return s.addNewNodes([]*model.Node{NodeFromVertex(v)})
}

// AddLine stores the way, and every vertex not stored yet.
func (s *Store) AddLine(l *feature.Line) error {
	nodes := make([]*model.Node, 0)
	for _, v := range l.Vertices {
		n, err := s.GetNode(v.ID)
		if err != nil {
			return err
		}
		if n == nil {
			nodes = append(nodes, NodeFromVertex(v))
		}
	}
	if len(nodes) > 0 {
		err := s.addNewNodes(nodes)
		if err != nil {
			return err
		}
	}
	return s.addNewWays([]*model.Way{WayFromLine(l)})
}

func (s *Store) MarkDeleted(id int64) error {
	way, err := s.GetWay(id)
	if err != nil {
		return err
	}
	if way == nil {
		return &split.LineNotFoundError{ID: id}
	}
	way.Deleted = proto.Bool(true)
	return s.addNewWays([]*model.Way{way})
}

func (s *Store) GroupsReferencing(lineID int64) ([]*feature.Group, error) {
	ids, err := s.indexer.relationsOf(lineID)
	if err != nil {
		return nil, err
	}

	result := make([]*feature.Group, 0, len(ids))
	for _, id := range ids {
		rel, err := s.GetRelation(id)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			continue
		}
		result = append(result, GroupFromRelation(rel))
	}
	return result, nil
}

func (s *Store) UpdateGroup(id int64, fn func(g *feature.Group) error) (*feature.Group, error) {
	lock := &s.relLocks[uint64(id)%uint64(len(s.relLocks))]
	lock.Lock()
	defer lock.Unlock()

	rel, err := s.GetRelation(id)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, fmt.Errorf("relation %d not found", id)
	}

	g := GroupFromRelation(rel)
	err = fn(g)
	if err != nil {
		return nil, err
	}
	g.ID = id

	err = s.addNewRelations([]*model.Relation{RelationFromGroup(g)})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) NewVertexID() int64 {
	return atomic.AddInt64(&s.lastNode, -1)
}

func (s *Store) NewLineID() int64 {
	return atomic.AddInt64(&s.lastWay, -1)
}

// EachLine calls fn for every live way. Ways with missing nodes are
// skipped.
func (s *Store) EachLine(fn func(l *feature.Line) error) error {
	return s.iterWays(func(way *model.Way) error {
		if way.GetDeleted() {
			return nil
		}
		l, err := s.lineFromWay(way)
		if _, ok := err.(*MissingNodeError); ok {
			return nil
		}
		if err != nil {
			return err
		}
		return fn(l)
	})
}

func (s *Store) iterWays(fn func(way *model.Way) error) error {
	ro := gorocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)
	defer ro.Destroy()

	it := s.db.NewIterator(ro)
	defer it.Close()

	prefix := []byte("way/")
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		value := it.Value()
		way := &model.Way{}
		err := proto.Unmarshal(value.Data(), way)
		value.Free()
		if err != nil {
			return err
		}

		err = fn(way)
		if err != nil {
			return err
		}
	}
	return it.Err()
}

// DeletedWays returns the identities of ways marked deleted.
func (s *Store) DeletedWays() ([]int64, error) {
	result := make([]int64, 0)
	err := s.iterWays(func(way *model.Way) error {
		if way.GetDeleted() {
			result = append(result, way.GetId())
		}
		return nil
	})
	return result, err
}

func (s *Store) getCounter(kind string) (int64, error) {
	n, err := s.db.Get(s.ro, []byte("counter/"+kind))
	if err != nil {
		return 0, err
	}
	defer n.Free()

	if n.Size() == 0 {
		return 0, nil
	}
	return strconv.ParseInt(strings.TrimSpace(string(n.Data())), 10, 64)
}

func (s *Store) saveCounters() error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	wb.Put([]byte("counter/node"), []byte(strconv.FormatInt(atomic.LoadInt64(&s.lastNode), 10)))
	wb.Put([]byte("counter/way"), []byte(strconv.FormatInt(atomic.LoadInt64(&s.lastWay), 10)))
	return s.db.Write(s.wo, wb)
}

// lower moves the counter down so identities handed out later stay below
// id.
func lower(counter *int64, id int64) {
	for {
		cur := atomic.LoadInt64(counter)
		if id >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(counter, cur, id) {
			return
		}
	}
}
