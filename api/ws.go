package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"dancebot/define"
	"dancebot/pkg/device"
)

const wsOutboxSize = 32

// wsSession 一条 WebSocket 连接的状态：当前选中的歌曲
type wsSession struct {
	dev    device.Device
	song   string
	logger *logrus.Entry
}

// handle 处理一条文本指令，返回回复
func (ws *wsSession) handle(msg string) string {
	msg = strings.TrimSpace(msg)
	engine := ws.dev.GetDanceEngine()

	switch {
	case strings.HasPrefix(msg, define.WSSongPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(msg, define.WSSongPrefix))
		song, err := engine.Library().Song(name)
		if err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		ws.song = song.Name
		ws.logger.Infof("🎵 选中歌曲 %s (%d 步)", song.Title, song.StepCount())
		return fmt.Sprintf("%ssong:%s:%d", define.WSOKPrefix, song.Name, song.StepCount())

	case strings.HasPrefix(msg, define.WSLEDPrefix):
		pattern := strings.TrimSpace(strings.TrimPrefix(msg, define.WSLEDPrefix))
		if err := ws.dev.SetLEDPattern(pattern); err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		return define.WSOKPrefix + "led:" + pattern

	case msg == define.WSStop:
		if err := engine.Stop(); err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		if err := ws.dev.StopBase(); err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		return define.WSOKPrefix + define.WSStop

	case msg == define.WSPause:
		if err := engine.Pause(); err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		return define.WSOKPrefix + define.WSPause

	case msg == define.WSResume:
		if err := engine.Resume(); err != nil {
			return define.WSErrorPrefix + err.Error()
		}
		return define.WSOKPrefix + define.WSResume
	}

	n, err := strconv.Atoi(msg)
	if err != nil {
		return define.WSErrorPrefix + fmt.Sprintf("未知指令：%s", msg)
	}
	if ws.song == "" {
		return define.WSErrorPrefix + "请先选择歌曲 (song:<name>)"
	}
	if err := engine.Enqueue(ws.song, n); err != nil {
		return define.WSErrorPrefix + err.Error()
	}
	return fmt.Sprintf("%squeued:%s:%d", define.WSOKPrefix, ws.song, n)
}

// handleWebSocket 网页端的步骤触发通道
func (s *Server) handleWebSocket(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.WithError(err).Warn("⚠️ WebSocket 握手失败")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "连接异常结束")

	logger := s.logger.WithField("robot", dev.GetID())
	logger.Info("🔗 WebSocket 客户端已连接")

	outbox := make(chan string, wsOutboxSize)
	unsubscribe := dev.GetDanceEngine().Subscribe(func(ev device.StepEvent) {
		select {
		case outbox <- fmt.Sprintf("%s%s:%d", define.WSStepPrefix, ev.Song, ev.Step):
		default:
			logger.Warnf("⚠️ WebSocket 发送队列已满，丢弃步骤事件 %s:%d", ev.Song, ev.Step)
		}
	})
	defer unsubscribe()

	session := &wsSession{dev: dev, logger: logger}
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case msg := <-outbox:
				if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return err
			}
			if typ != websocket.MessageText {
				continue
			}
			reply := session.handle(string(data))
			select {
			case outbox <- reply:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	err = g.Wait()
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		logger.Info("🔌 WebSocket 客户端已断开")
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Debug("WebSocket 连接结束")
		}
	}
}
