package entity

// VisualEffect 全局视觉特效标签。进程级状态, 同一时刻至多一个激活,
// 不挂在任何具体消息上。
type VisualEffect string

const (
	EffectNone      VisualEffect = ""
	EffectHeart     VisualEffect = "heart"
	EffectButterfly VisualEffect = "butterfly"
	EffectCat       VisualEffect = "cat"
	EffectFirework  VisualEffect = "firework"
)

// ParseVisualEffect 解析特效标签, 未知值返回 EffectNone。
// 服务端返回越界枚举时静默丢弃而非报错。
func ParseVisualEffect(s string) VisualEffect {
	switch VisualEffect(s) {
	case EffectHeart, EffectButterfly, EffectCat, EffectFirework:
		return VisualEffect(s)
	default:
		return EffectNone
	}
}
