package models

import (
	"reflect"
	"sync"
	"testing"

	"github.com/udovin/algo/btree"
)

type indexObject struct {
	ID  int64
	Int int
}

func (o indexObject) ObjectID() int64 {
	return o.ID
}

func (o *indexObject) SetObjectID(id int64) {
	o.ID = id
}

func (o indexObject) Clone() indexObject {
	return o
}

func lessInt(lhs, rhs int) bool {
	return lhs < rhs
}

func testSetupIndexObjects() btree.Map[int64, indexObject] {
	objects := btree.NewMap[int64, indexObject](lessInt64)
	objects.Set(1, indexObject{ID: 1, Int: 0})
	objects.Set(2, indexObject{ID: 2, Int: 5})
	objects.Set(3, indexObject{ID: 3, Int: 1})
	objects.Set(4, indexObject{ID: 4, Int: 1})
	objects.Set(5, indexObject{ID: 5, Int: 2})
	objects.Set(6, indexObject{ID: 6, Int: 3})
	objects.Set(7, indexObject{ID: 7, Int: 1})
	return objects
}

func testSetupIndex(
	objects btree.Map[int64, indexObject],
) *btreeIndex[int, indexObject, *indexObject] {
	index := newBTreeIndex[int, indexObject, *indexObject](
		func(o indexObject) (int, bool) { return o.Int, o.Int != 0 },
		lessInt,
	)
	index.Reset()
	for it := objects.Iter(); it.Next(); {
		index.Register(it.Value())
	}
	return index
}

func testCollectIndexIDs(rows *btreeIndexRows[indexObject, *indexObject]) []int64 {
	var ids []int64
	for rows.Next() {
		ids = append(ids, rows.Row().ID)
	}
	return ids
}

func TestBTreeIndexFind(t *testing.T) {
	objects := testSetupIndexObjects()
	index := testSetupIndex(objects)
	var mutex sync.Mutex
	for _, test := range []struct {
		Keys  []int
		Limit int
		IDs   []int64
	}{
		{Keys: []int{1}, IDs: []int64{3, 4, 7}},
		{Keys: []int{1}, Limit: 2, IDs: []int64{3, 4}},
		{Keys: []int{2}, IDs: []int64{5}},
		{Keys: []int{1, 3}, IDs: []int64{3, 4, 6, 7}},
		{Keys: []int{4}, IDs: nil},
		// Zero key is not registered in the index.
		{Keys: []int{0}, IDs: nil},
	} {
		mutex.Lock()
		rows := btreeIndexFind(
			index, objects.Iter(), &mutex, test.Keys, test.Limit,
		)
		ids := testCollectIndexIDs(rows)
		if err := rows.Close(); err != nil {
			t.Fatal("Error:", err)
		}
		if !reflect.DeepEqual(ids, test.IDs) {
			t.Fatalf("Expected %v, got %v", test.IDs, ids)
		}
	}
}

func TestBTreeIndexReverseFind(t *testing.T) {
	objects := testSetupIndexObjects()
	index := testSetupIndex(objects)
	var mutex sync.Mutex
	for _, test := range []struct {
		Keys  []int
		Limit int
		IDs   []int64
	}{
		{Keys: []int{1}, IDs: []int64{7, 4, 3}},
		{Keys: []int{1}, Limit: 1, IDs: []int64{7}},
		{Keys: []int{1, 3}, IDs: []int64{7, 6, 4, 3}},
		{Keys: []int{4}, IDs: nil},
	} {
		mutex.Lock()
		rows := btreeIndexReverseFind(
			index, objects.Iter(), &mutex, test.Keys, test.Limit,
		)
		ids := testCollectIndexIDs(rows)
		if err := rows.Close(); err != nil {
			t.Fatal("Error:", err)
		}
		if !reflect.DeepEqual(ids, test.IDs) {
			t.Fatalf("Expected %v, got %v", test.IDs, ids)
		}
	}
}

func TestBTreeIndexGet(t *testing.T) {
	objects := testSetupIndexObjects()
	index := testSetupIndex(objects)
	object, err := btreeIndexGet(index, objects.Iter(), 5)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if object.ID != 2 {
		t.Fatalf("Expected ID 2, got %d", object.ID)
	}
	if _, err := btreeIndexGet(index, objects.Iter(), 4); err == nil {
		t.Fatal("Expected error for missing key")
	}
	index.Deregister(indexObject{ID: 2, Int: 5})
	if _, err := btreeIndexGet(index, objects.Iter(), 5); err == nil {
		t.Fatal("Expected error after deregister")
	}
}
