package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"dancebot/pkg/choreography"
	"dancebot/pkg/device"
)

// handleGetDances 可跳的歌曲与当前播放状态
func (s *Server) handleGetDances(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	engine := dev.GetDanceEngine()
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: DanceListResponse{
			Songs:  songInfos(engine.Library()),
			Status: engine.Status(),
		},
	})
}

// handleStartDance 自动播放一首歌
func (s *Server) handleStartDance(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	var req DanceStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的舞蹈请求："+err.Error())
		return
	}

	runID, err := dev.GetDanceEngine().Start(req.Song, device.PlayOptions{
		Interval: time.Duration(req.IntervalMs) * time.Millisecond,
		Shuffle:  req.Shuffle,
		FromStep: req.FromStep,
		Loop:     req.Loop,
	})
	if err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("启动舞蹈失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("%s 舞蹈已启动", req.Song),
		Data:    map[string]any{"runId": runID, "status": dev.GetDanceEngine().Status()},
	})
}

// handleStopDance 停止自动播放
func (s *Server) handleStopDance(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	if err := dev.GetDanceEngine().Stop(); err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("停止舞蹈失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "舞蹈已停止",
	})
}

// handlePauseDance 在当前步骤结束后暂停
func (s *Server) handlePauseDance(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	if err := dev.GetDanceEngine().Pause(); err != nil {
		respondError(c, http.StatusConflict, err.Error())
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "舞蹈已暂停",
	})
}

// handleResumeDance 恢复暂停的舞蹈
func (s *Server) handleResumeDance(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	if err := dev.GetDanceEngine().Resume(); err != nil {
		respondError(c, http.StatusConflict, err.Error())
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "舞蹈已恢复",
	})
}

// handleDanceStatus 播放状态
func (s *Server) handleDanceStatus(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   dev.GetDanceEngine().Status(),
	})
}

// handleExecuteStep 同步执行一首歌的单个步骤
func (s *Server) handleExecuteStep(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	songName := c.Param("song")
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("无效的步骤编号：%s", c.Param("step")))
		return
	}

	engine := dev.GetDanceEngine()
	if err := engine.ExecuteStep(songName, step); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("执行步骤失败：%v", err))
		return
	}

	song, _ := engine.Library().Song(songName)
	title := ""
	if st, ok := song.Step(step); ok {
		title = st.Title
	}
	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: title,
		Data:    map[string]any{"song": song.Name, "step": step, "title": title},
	})
}

// handleGetSongs 歌曲列表
func (s *Server) handleGetSongs(c *gin.Context) {
	songs := songInfos(s.env.Library)
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   map[string]any{"songs": songs, "total": len(songs)},
	})
}

// handleGetSong 歌曲详情，包含每一步的指令与预计时长
func (s *Server) handleGetSong(c *gin.Context) {
	song, err := s.env.Library.Song(c.Param("song"))
	if err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}

	detail := SongDetail{SongInfo: songInfo(song)}
	for i, st := range song.Steps {
		detail.Steps = append(detail.Steps, StepInfo{
			Number: i + 1,
			Title:  st.Title,
			Commands: lo.Map(st.Commands, func(cmd choreography.Command, _ int) string {
				return cmd.String()
			}),
			Estimate: st.EstimateDuration(s.env.Motion.DefaultSteps, s.env.Motion.StepDelay).String(),
		})
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   detail,
	})
}

func songInfos(library *choreography.Library) []SongInfo {
	if library == nil {
		return []SongInfo{}
	}
	return lo.Map(library.Songs(), func(song *choreography.Song, _ int) SongInfo {
		return songInfo(song)
	})
}
