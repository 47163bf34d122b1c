package protocol

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/scene"
)

type MessageType uint8

const (
	MessageFence MessageType = iota + 1
	MessageDelete
	MessageSet
)

func (t MessageType) String() string {
	switch t {
	case MessageFence:
		return "fence"
	case MessageDelete:
		return "delete"
	case MessageSet:
		return "set"
	}
	return fmt.Sprintf("message(%d)", uint8(t))
}

type FenceType uint8

const (
	FenceSceneBegin FenceType = iota + 1
	FenceSceneEnd
)

func (t FenceType) String() string {
	switch t {
	case FenceSceneBegin:
		return "scene_begin"
	case FenceSceneEnd:
		return "scene_end"
	}
	return fmt.Sprintf("fence(%d)", uint8(t))
}

type DeleteTarget struct {
	Path string
	ID   int32
}

/** @brief The scene fragment carried by a Set message. */
type Scene struct {
	Settings    scene.Settings
	Objects     []scene.Object
	Materials   []*scene.Material
	Animations  []*scene.AnimationClip
	Constraints []*scene.Constraint
}

/**
 * @brief One protocol message. Session and Revision identify the sender and
 * the send cycle, so a receiver can pair SceneBegin with SceneEnd.
 */
type Message struct {
	Type     MessageType
	Session  string
	Revision uint64
	Fence    FenceType
	Targets  []DeleteTarget
	Scene    *Scene
}

func NewFence(t FenceType) *Message {
	return &Message{Type: MessageFence, Fence: t}
}

func NewDelete(paths []string) *Message {
	targets := make([]DeleteTarget, len(paths))
	for i, p := range paths {
		targets[i] = DeleteTarget{Path: p}
	}
	return &Message{Type: MessageDelete, Targets: targets}
}

func NewSet(s *Scene) *Message {
	return &Message{Type: MessageSet, Scene: s}
}

// Label names the message for logs and errors, e.g. "fence(scene_begin)".
func (m *Message) Label() string {
	switch m.Type {
	case MessageFence:
		return fmt.Sprintf("%s(%s)", m.Type, m.Fence)
	case MessageDelete:
		return fmt.Sprintf("%s(%d)", m.Type, len(m.Targets))
	case MessageSet:
		if m.Scene == nil {
			return m.Type.String()
		}
		return fmt.Sprintf("%s(objects=%d materials=%d clips=%d)", m.Type, len(m.Scene.Objects), len(m.Scene.Materials), len(m.Scene.Animations))
	}
	return m.Type.String()
}

/** @brief The receiver's reply to every message. */
type Response struct {
	OK    bool
	Error string
}
