// Package model holds the records stored in the RocksDB data store. The
// messages follow storage.proto and are encoded with gogo/protobuf.
package model

import (
	proto "github.com/gogo/protobuf/proto"
)

type TagEntry struct {
	Key   *string `protobuf:"bytes,1,opt,name=key" json:"key,omitempty"`
	Value *string `protobuf:"bytes,2,opt,name=value" json:"value,omitempty"`
}

func (m *TagEntry) Reset()         { *m = TagEntry{} }
func (m *TagEntry) String() string { return proto.CompactTextString(m) }
func (*TagEntry) ProtoMessage()    {}

func (m *TagEntry) GetKey() string {
	if m != nil && m.Key != nil {
		return *m.Key
	}
	return ""
}

func (m *TagEntry) GetValue() string {
	if m != nil && m.Value != nil {
		return *m.Value
	}
	return ""
}

type Node struct {
	Id   *int64      `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Lat  *float64    `protobuf:"fixed64,2,opt,name=lat" json:"lat,omitempty"`
	Lon  *float64    `protobuf:"fixed64,3,opt,name=lon" json:"lon,omitempty"`
	Tags []*TagEntry `protobuf:"bytes,4,rep,name=tags" json:"tags,omitempty"`
}

func (m *Node) Reset()         { *m = Node{} }
func (m *Node) String() string { return proto.CompactTextString(m) }
func (*Node) ProtoMessage()    {}

func (m *Node) GetId() int64 {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return 0
}

func (m *Node) GetLat() float64 {
	if m != nil && m.Lat != nil {
		return *m.Lat
	}
	return 0
}

func (m *Node) GetLon() float64 {
	if m != nil && m.Lon != nil {
		return *m.Lon
	}
	return 0
}

func (m *Node) GetTags() []*TagEntry {
	if m != nil {
		return m.Tags
	}
	return nil
}

type Way struct {
	Id      *int64      `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Refs    []int64     `protobuf:"varint,2,rep,packed,name=refs" json:"refs,omitempty"`
	Tags    []*TagEntry `protobuf:"bytes,3,rep,name=tags" json:"tags,omitempty"`
	Deleted *bool       `protobuf:"varint,4,opt,name=deleted" json:"deleted,omitempty"`
}

func (m *Way) Reset()         { *m = Way{} }
func (m *Way) String() string { return proto.CompactTextString(m) }
func (*Way) ProtoMessage()    {}

func (m *Way) GetId() int64 {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return 0
}

func (m *Way) GetRefs() []int64 {
	if m != nil {
		return m.Refs
	}
	return nil
}

func (m *Way) GetTags() []*TagEntry {
	if m != nil {
		return m.Tags
	}
	return nil
}

func (m *Way) GetDeleted() bool {
	if m != nil && m.Deleted != nil {
		return *m.Deleted
	}
	return false
}

type MemberEntry struct {
	Id   *int64  `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Type *int32  `protobuf:"varint,2,opt,name=type" json:"type,omitempty"`
	Role *string `protobuf:"bytes,3,opt,name=role" json:"role,omitempty"`
}

func (m *MemberEntry) Reset()         { *m = MemberEntry{} }
func (m *MemberEntry) String() string { return proto.CompactTextString(m) }
func (*MemberEntry) ProtoMessage()    {}

func (m *MemberEntry) GetId() int64 {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return 0
}

func (m *MemberEntry) GetType() int32 {
	if m != nil && m.Type != nil {
		return *m.Type
	}
	return 0
}

func (m *MemberEntry) GetRole() string {
	if m != nil && m.Role != nil {
		return *m.Role
	}
	return ""
}

type Relation struct {
	Id       *int64         `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Tags     []*TagEntry    `protobuf:"bytes,2,rep,name=tags" json:"tags,omitempty"`
	Members  []*MemberEntry `protobuf:"bytes,3,rep,name=members" json:"members,omitempty"`
	Modified *bool          `protobuf:"varint,4,opt,name=modified" json:"modified,omitempty"`
}

func (m *Relation) Reset()         { *m = Relation{} }
func (m *Relation) String() string { return proto.CompactTextString(m) }
func (*Relation) ProtoMessage()    {}

func (m *Relation) GetId() int64 {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return 0
}

func (m *Relation) GetTags() []*TagEntry {
	if m != nil {
		return m.Tags
	}
	return nil
}

func (m *Relation) GetMembers() []*MemberEntry {
	if m != nil {
		return m.Members
	}
	return nil
}

func (m *Relation) GetModified() bool {
	if m != nil && m.Modified != nil {
		return *m.Modified
	}
	return false
}
