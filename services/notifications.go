package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"placement/metrics"
	"placement/models"
	"placement/utils"
)

const notifyTimeout = 30 * time.Second

// Notifier renders and delivers emails. Lifecycle notifications run in
// their own goroutine and never report failure to the caller.
type Notifier struct {
	mailer utils.Mailer
	wg     sync.WaitGroup
}

func NewNotifier(mailer utils.Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// Wait blocks until every dispatched notification has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Send renders and delivers synchronously and reports the outcome.
func (n *Notifier) Send(ctx context.Context, kind, to string, content utils.EmailContent) error {
	err := n.mailer.Send(ctx, utils.Message{To: to, Subject: content.Subject, HTML: content.HTML})
	metrics.Notification(kind, err == nil)
	if err != nil {
		log.WithFields(log.Fields{"kind": kind, "to": to}).WithError(err).Warn("notification not delivered")
	}
	return err
}

func (n *Notifier) dispatch(kind, to string, render func() (utils.EmailContent, error)) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		content, err := render()
		if err != nil {
			metrics.Notification(kind, false)
			log.WithField("kind", kind).WithError(err).Error("render notification")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		_ = n.Send(ctx, kind, to, content)
	}()
}

// ApplicationSubmitted tells the student their application arrived and
// the job's poster that a new applicant is waiting.
func (n *Notifier) ApplicationSubmitted(student, admin *models.User, job *models.Job) {
	if student != nil {
		n.dispatch("application_submitted", student.Email, func() (utils.EmailContent, error) {
			return utils.ApplicationSubmittedEmail(student.Name, job.Title, job.Company)
		})
	}
	if admin != nil && student != nil {
		n.dispatch("new_applicant", admin.Email, func() (utils.EmailContent, error) {
			return utils.NewApplicantEmail(student.Name, job.Title)
		})
	}
}

// StatusChanged tells the student about a decision.
func (n *Notifier) StatusChanged(student *models.User, job *models.Job, status models.ApplicationStatus) {
	if student == nil {
		return
	}
	switch status {
	case models.StatusAccepted:
		n.dispatch("application_accepted", student.Email, func() (utils.EmailContent, error) {
			return utils.ApplicationAcceptedEmail(student.Name, job.Title, job.Company)
		})
	case models.StatusDeclined:
		n.dispatch("application_declined", student.Email, func() (utils.EmailContent, error) {
			return utils.ApplicationDeclinedEmail(student.Name, job.Title, job.Company)
		})
	}
}
