package models

import (
	"encoding/json"
	"fmt"

	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

// MessageType tags a SyncMessage.
type MessageType string

const (
	MsgRequestState       MessageType = "REQUEST_STATE"
	MsgStateSync          MessageType = "STATE_SYNC"
	MsgSetSlides          MessageType = "SET_SLIDES"
	MsgNavigate           MessageType = "NAVIGATE"
	MsgSetBlack           MessageType = "SET_BLACK"
	MsgSetLive            MessageType = "SET_LIVE"
	MsgUpdateGlobalLogo   MessageType = "UPDATE_GLOBAL_LOGO"
	MsgSetLogoOverride    MessageType = "SET_LOGO_OVERRIDE"
	MsgRemoveLogoOverride MessageType = "REMOVE_LOGO_OVERRIDE"
	MsgApplyStyles        MessageType = "APPLY_STYLES"
	MsgResetStyles        MessageType = "RESET_STYLES"
	MsgSceneEnter         MessageType = "SCENE_ENTER"
	MsgSceneLeave         MessageType = "SCENE_LEAVE"
	MsgShowArmedProp      MessageType = "SHOW_ARMED_PROP"
	MsgHideProp           MessageType = "HIDE_PROP"
	MsgUpsertTextOverlay  MessageType = "UPSERT_TEXT_OVERLAY"
	MsgUpsertImageOverlay MessageType = "UPSERT_IMAGE_OVERLAY"
	MsgRemoveOverlay      MessageType = "REMOVE_OVERLAY"
	MsgMoveOverlay        MessageType = "MOVE_OVERLAY"
	MsgSetVideoBackground MessageType = "SET_VIDEO_BACKGROUND"
)

// SyncMessage is the unit exchanged on a sync channel.
type SyncMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload into a message of type t. A nil payload yields
// a message without one.
func NewMessage(t MessageType, payload any) (SyncMessage, error) {
	msg := SyncMessage{Type: t}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return SyncMessage{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m SyncMessage) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.Type, err)
	}
	return nil
}

// StateSyncPayload carries a complete state, never a delta.
type StateSyncPayload struct {
	State PresentationState `json:"state"`
}

type SlidesPayload struct {
	Slides []SlideRef `json:"slides"`
}

type NavigatePayload struct {
	SlideIndex int `json:"slideIndex"`
}

type FlagPayload struct {
	Value bool `json:"value"`
}

type GlobalLogoPayload struct {
	Patch LogoOverride `json:"patch"`
}

type LogoOverridePayload struct {
	SlideIndex int          `json:"slideIndex"`
	Override   LogoOverride `json:"override"`
}

type SlideIndexPayload struct {
	SlideIndex int `json:"slideIndex"`
}

type ApplyStylesPayload struct {
	Styles style.SlideStyles `json:"styles"`
	Scope  style.Scope       `json:"scope"`
}

type ResetStylesPayload struct {
	Scope style.Scope `json:"scope"`
}

// SceneEnterPayload carries the prop set the presenter derived on entering an
// element, so outputs need no access to the Look registry.
type SceneEnterPayload struct {
	Scene scene.State `json:"scene"`
}

type PropPayload struct {
	PropID string `json:"propId"`
}

type TextOverlayPayload struct {
	Overlay TextOverlay `json:"overlay"`
}

type ImageOverlayPayload struct {
	Overlay ImageOverlay `json:"overlay"`
}

type OverlayIDPayload struct {
	ID string `json:"id"`
}

type MoveOverlayPayload struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

type VideoBackgroundPayload struct {
	Video *VideoBackground `json:"video"`
}
